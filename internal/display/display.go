// Package display drives the cursor-addressed terminal the saver paints on
// and polls the keyboard behind it.
package display

import (
	"context"
	"errors"
)

// Key codes delivered by Keyboard implementations. Printable keys arrive
// as their rune; control keys are normalised to these ASCII codes.
const (
	KeyNone      rune = 0
	KeyBackspace rune = 8
	KeyNewline   rune = 10
	KeyEnter     rune = 13
	KeyEscape    rune = 27
	KeyDelete    rune = 127

	// KeyOther stands in for keys with no ASCII equivalent (arrows,
	// function keys). It still counts as a key press.
	KeyOther rune = 0xfffd
)

// ErrClosed is returned by PollKey and WaitKey once the input source is
// gone.
var ErrClosed = errors.New("keyboard closed")

// Terminal is an absolute-addressed character display.
//
// Write places text at the cursor and advances it. It understands '\n'
// (first column of the next row), '\r' (first column) and '\b' (one
// column left). Callers are responsible for keeping coordinates in range.
type Terminal interface {
	Clear()
	MoveCursor(col, row int)
	Write(s string)
	Cursor() (col, row int)
	Size() (cols, rows int)
	Flush() error
}

// Keyboard delivers key presses without echo.
type Keyboard interface {
	// PollKey returns the next pending key, or KeyNone without blocking.
	// It returns ErrClosed once the input source is gone.
	PollKey() (rune, error)
	// WaitKey blocks until a key is pressed or ctx is done.
	WaitKey(ctx context.Context) (rune, error)
}

// Drain discards pending keys and reports how many were dropped.
func Drain(k Keyboard) int {
	n := 0
	for {
		r, err := k.PollKey()
		if err != nil || r == KeyNone {
			return n
		}
		n++
	}
}

// IsPrintable reports whether r is a printable ASCII character.
func IsPrintable(r rune) bool {
	return r >= 32 && r < 127
}
