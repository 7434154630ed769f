package display

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Screen is a Terminal and Keyboard backed by a tcell screen.
type Screen struct {
	screen   tcell.Screen
	style    tcell.Style
	col, row int
	keys     chan rune
}

// NewScreen creates and initializes the host terminal screen.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	return Wrap(s), nil
}

// Wrap adopts an initialized tcell screen and starts pumping its events.
func Wrap(s tcell.Screen) *Screen {
	s.HideCursor()
	s.Clear()

	sc := &Screen{
		screen: s,
		style:  tcell.StyleDefault,
		keys:   make(chan rune, 32),
	}
	go sc.pollEvents()
	return sc
}

// Close restores the terminal. PollEvent then returns nil, which ends the
// event goroutine.
func (s *Screen) Close() {
	s.screen.Fini()
}

func (s *Screen) pollEvents() {
	defer close(s.keys)
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			s.keys <- keyCode(ev)
		case *tcell.EventResize:
			s.screen.Sync()
		}
	}
}

func keyCode(ev *tcell.EventKey) rune {
	switch ev.Key() {
	case tcell.KeyRune:
		return ev.Rune()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackspace
	case tcell.KeyDelete:
		return KeyDelete
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyLF:
		return KeyNewline
	case tcell.KeyEscape:
		return KeyEscape
	}
	if k := ev.Key(); k > 0 && k < 0x80 {
		return rune(k)
	}
	return KeyOther
}

func (s *Screen) PollKey() (rune, error) {
	select {
	case k, ok := <-s.keys:
		if !ok {
			return KeyNone, ErrClosed
		}
		return k, nil
	default:
		return KeyNone, nil
	}
}

func (s *Screen) WaitKey(ctx context.Context) (rune, error) {
	select {
	case k, ok := <-s.keys:
		if !ok {
			return KeyNone, ErrClosed
		}
		return k, nil
	case <-ctx.Done():
		return KeyNone, ctx.Err()
	}
}

func (s *Screen) Clear() {
	s.screen.Clear()
	s.col, s.row = 0, 0
}

func (s *Screen) MoveCursor(col, row int) {
	s.col, s.row = col, row
}

func (s *Screen) Write(str string) {
	for _, r := range str {
		switch r {
		case '\n':
			s.col = 0
			s.row++
		case '\r':
			s.col = 0
		case '\b':
			if s.col > 0 {
				s.col--
			}
		default:
			s.screen.SetContent(s.col, s.row, r, nil, s.style)
			s.col++
		}
	}
}

func (s *Screen) Cursor() (int, int) {
	return s.col, s.row
}

func (s *Screen) Size() (int, int) {
	return s.screen.Size()
}

func (s *Screen) Flush() error {
	s.screen.Show()
	return nil
}
