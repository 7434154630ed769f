package display

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// RawKeyboard reads keys from a byte stream, typically stdin switched to
// raw mode so keys arrive unechoed and unbuffered.
type RawKeyboard struct {
	fd    int
	state *term.State
	keys  chan rune
}

// OpenRawKeyboard puts f into raw mode when it is a terminal and starts
// reading from it. Close restores the previous mode.
func OpenRawKeyboard(f *os.File) (*RawKeyboard, error) {
	k := &RawKeyboard{fd: int(f.Fd()), keys: make(chan rune, 32)}
	if term.IsTerminal(k.fd) {
		state, err := term.MakeRaw(k.fd)
		if err != nil {
			return nil, fmt.Errorf("setting raw mode: %w", err)
		}
		k.state = state
	}
	go k.read(f)
	return k, nil
}

// NewKeyboard reads keys from r without touching terminal modes.
func NewKeyboard(r io.Reader) *RawKeyboard {
	k := &RawKeyboard{fd: -1, keys: make(chan rune, 32)}
	go k.read(r)
	return k
}

func (k *RawKeyboard) read(r io.Reader) {
	defer close(k.keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			k.keys <- rune(buf[0])
		}
		if err != nil {
			return
		}
	}
}

// Close restores the terminal mode. The reader goroutine stays parked in
// Read until the process exits.
func (k *RawKeyboard) Close() error {
	if k.state == nil {
		return nil
	}
	if err := term.Restore(k.fd, k.state); err != nil {
		return fmt.Errorf("restoring terminal: %w", err)
	}
	return nil
}

func (k *RawKeyboard) PollKey() (rune, error) {
	select {
	case r, ok := <-k.keys:
		if !ok {
			return KeyNone, ErrClosed
		}
		return r, nil
	default:
		return KeyNone, nil
	}
}

func (k *RawKeyboard) WaitKey(ctx context.Context) (rune, error) {
	select {
	case r, ok := <-k.keys:
		if !ok {
			return KeyNone, ErrClosed
		}
		return r, nil
	case <-ctx.Done():
		return KeyNone, ctx.Err()
	}
}
