//go:build ios || android || !(amd64 || arm64)

package ffgosource

import (
	"context"

	"github.com/user/framereview/pkg/ports"
)

// Available always fails on platforms ffgo does not support.
func Available() error {
	return ErrUnavailable
}

// Opener is unavailable on this platform.
type Opener struct{}

// Open always returns ErrUnavailable.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	return nil, ErrUnavailable
}

var _ ports.SourceOpener = (*Opener)(nil)
