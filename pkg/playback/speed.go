package playback

import (
	"strconv"
	"strings"
	"time"
)

// DefaultBaseInterval is the tick interval at speed 1.
const DefaultBaseInterval = 40 * time.Millisecond

// Speed is a playback speed multiplier.
type Speed float64

// Speeds lists the selectable multipliers in dropdown order.
var Speeds = []Speed{1, 0.5, 1.25, 2, 5, 10, 20}

// Valid reports whether s is one of Speeds.
func (s Speed) Valid() bool {
	for _, v := range Speeds {
		if v == s {
			return true
		}
	}
	return false
}

// Interval returns base divided by the multiplier.
func (s Speed) Interval(base time.Duration) time.Duration {
	return time.Duration(float64(base) / float64(s))
}

// String returns the dropdown label of the speed, e.g. "1.25".
func (s Speed) String() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// ParseSpeed parses a dropdown label. A trailing "x" is accepted ("2x").
func ParseSpeed(s string) (Speed, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "x")
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &InvalidSpeedError{Value: v}
	}
	speed := Speed(v)
	if !speed.Valid() {
		return 0, &InvalidSpeedError{Value: v}
	}
	return speed, nil
}
