package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/user/framereview/pkg/playback"
)

// Kind identifies a host command.
type Kind int

const (
	// CmdPause suspends autonomous advance.
	CmdPause Kind = iota + 1
	// CmdResume resumes autonomous advance.
	CmdResume
	// CmdToggle flips the pause flag.
	CmdToggle
	// CmdSpeed selects a speed multiplier.
	CmdSpeed
	// CmdSeek drags the position slider.
	CmdSeek
	// CmdJump requests a jump to a frame.
	CmdJump
	// CmdSelect activates an index entry.
	CmdSelect
	// CmdIndex loads an index file. An empty path is a cancelled dialog.
	CmdIndex
	// CmdReload re-reads the current index file.
	CmdReload
	// CmdSnap saves the displayed frame. An empty path is a cancelled dialog.
	CmdSnap
	// CmdStatus shows the current frame again.
	CmdStatus
	// CmdQuit ends the session.
	CmdQuit
)

var kindNames = map[Kind]string{
	CmdPause:  "pause",
	CmdResume: "resume",
	CmdToggle: "toggle",
	CmdSpeed:  "speed",
	CmdSeek:   "seek",
	CmdJump:   "jump",
	CmdSelect: "select",
	CmdIndex:  "index",
	CmdReload: "reload",
	CmdSnap:   "snap",
	CmdStatus: "status",
	CmdQuit:   "quit",
}

var aliases = map[string]Kind{
	"p":    CmdToggle,
	"play": CmdResume,
	"q":    CmdQuit,
	"exit": CmdQuit,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one user action delivered to the session between ticks.
type Command struct {
	Kind    Kind
	Frame   int
	Entry   int
	Speed   playback.Speed
	Path    string
	Caption bool
}

// String renders the command in the form ParseCommand accepts.
func (c Command) String() string {
	switch c.Kind {
	case CmdSpeed:
		return "speed " + c.Speed.String()
	case CmdSeek, CmdJump:
		return c.Kind.String() + " " + strconv.Itoa(c.Frame)
	case CmdSelect:
		return "select " + strconv.Itoa(c.Entry)
	case CmdIndex:
		return strings.TrimSpace("index " + c.Path)
	case CmdSnap:
		s := "snap"
		if c.Caption {
			s += " --caption"
		}
		return strings.TrimSpace(s + " " + c.Path)
	default:
		return c.Kind.String()
	}
}

// ParseCommand parses one line of the terminal command protocol:
//
//	pause | resume | toggle | status | reload | quit
//	speed <multiplier>
//	seek <frame>      slider drag
//	jump <frame>
//	select <entry>    zero-based index row
//	index [path]
//	snap [--caption] [path]
func ParseCommand(line string) (Command, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	word = strings.ToLower(word)
	rest = strings.TrimSpace(rest)

	kind, ok := aliases[word]
	if !ok {
		for k, name := range kindNames {
			if name == word {
				kind, ok = k, true
				break
			}
		}
	}
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command %q", playback.ErrInvalidInput, word)
	}

	cmd := Command{Kind: kind}
	switch kind {
	case CmdSpeed:
		speed, err := playback.ParseSpeed(rest)
		if err != nil {
			return Command{}, err
		}
		cmd.Speed = speed
	case CmdSeek, CmdJump:
		n, err := parseInt(kind, rest)
		if err != nil {
			return Command{}, err
		}
		cmd.Frame = n
	case CmdSelect:
		n, err := parseInt(kind, rest)
		if err != nil {
			return Command{}, err
		}
		cmd.Entry = n
	case CmdIndex:
		cmd.Path = rest
	case CmdSnap:
		if after, found := strings.CutPrefix(rest, "--caption"); found {
			cmd.Caption = true
			rest = strings.TrimSpace(after)
		}
		cmd.Path = rest
	default:
		if rest != "" {
			return Command{}, fmt.Errorf("%w: %s takes no argument", playback.ErrInvalidInput, kind)
		}
	}
	return cmd, nil
}

func parseInt(kind Kind, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s needs an integer, got %q", playback.ErrInvalidInput, kind, s)
	}
	return n, nil
}
