// Package tui implements the UI/controller state machine: spec section
// 4.5. It owns the terminal and the LED ring exclusively (spec section
// 5) and runs single-threaded, the same "draw -> poll events" shape the
// original terminal_task.rs uses, generalized from ratatui/crossterm to a
// github.com/pkg/term raw-mode key reader since neither ratatui nor
// crossterm exist in the pack. The package has no renderer: it keeps the
// screen and call state and reads keys, but draws nothing to the terminal.
package tui

import (
	"time"

	"github.com/pkg/term"
)

// Key is a decoded keypress, the package's stand-in for crossterm's
// KeyCode enum.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyChar // Rune holds the character
)

// KeyEvent pairs a decoded Key with its rune payload for KeyChar.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// KeyReader is the seam between the controller and the physical terminal;
// spec section 6 lists the TUI rendering/key-source library as an
// external collaborator, so production code and tests each get their own
// implementation.
type KeyReader interface {
	// ReadKey blocks up to budget for one keypress. ok is false on
	// timeout; err is non-nil only on an unrecoverable read failure.
	ReadKey(budget time.Duration) (ev KeyEvent, ok bool, err error)
	Close() error
}

// byteSource is the minimal read seam termKeyReader needs; satisfied by
// *term.Term and by a test double over a pty.
type byteSource interface {
	SetReadTimeout(time.Duration) error
	Read([]byte) (int, error)
}

// termKeyReader reads and decodes raw bytes from the controlling
// terminal, grounded on the teacher's serial_port.go
// term.Open(..., term.RawMode) pattern, generalized from a serial device
// path to the controlling tty. Arrow keys arrive as a 3-byte ANSI escape
// sequence (ESC '[' 'A'/'B'); everything else is a single byte.
type termKeyReader struct {
	src byteSource
}

// NewTermKeyReader opens path (typically "/dev/tty") in raw mode.
func NewTermKeyReader(path string) (KeyReader, error) {
	t, err := term.Open(path, term.RawMode)
	if err != nil {
		return nil, err
	}
	return &termKeyReader{src: t}, nil
}

// NewKeyReaderFromSource wraps an already-open byteSource (a test pty),
// for tests that want to drive the real decode path without a real tty.
func NewKeyReaderFromSource(src byteSource) KeyReader {
	return &termKeyReader{src: src}
}

func (r *termKeyReader) readByte(budget time.Duration) (byte, bool, error) {
	if err := r.src.SetReadTimeout(budget); err != nil {
		return 0, false, err
	}
	buf := make([]byte, 1)
	n, err := r.src.Read(buf)
	if n == 0 {
		// A deadline-exceeded read surfaces as either n==0,err==nil or
		// n==0,err!=nil depending on platform; both mean "nothing yet".
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return buf[0], true, nil
}

func (r *termKeyReader) ReadKey(budget time.Duration) (KeyEvent, bool, error) {
	b, ok, err := r.readByte(budget)
	if err != nil || !ok {
		return KeyEvent{}, false, err
	}

	switch b {
	case 0x1b: // ESC, possibly the start of an arrow-key escape sequence
		b2, ok, err := r.readByte(5 * time.Millisecond)
		if err != nil {
			return KeyEvent{}, false, err
		}
		if !ok || b2 != '[' {
			return KeyEvent{Key: KeyEsc}, true, nil
		}
		b3, ok, err := r.readByte(5 * time.Millisecond)
		if err != nil {
			return KeyEvent{}, false, err
		}
		if !ok {
			return KeyEvent{Key: KeyEsc}, true, nil
		}
		switch b3 {
		case 'A':
			return KeyEvent{Key: KeyUp}, true, nil
		case 'B':
			return KeyEvent{Key: KeyDown}, true, nil
		default:
			return KeyEvent{Key: KeyNone}, true, nil
		}
	case '\r', '\n':
		return KeyEvent{Key: KeyEnter}, true, nil
	case 0x7f, 0x08:
		return KeyEvent{Key: KeyBackspace}, true, nil
	default:
		return KeyEvent{Key: KeyChar, Rune: rune(b)}, true, nil
	}
}

func (r *termKeyReader) Close() error {
	if c, ok := r.src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
