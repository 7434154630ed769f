package display

import (
	"bufio"
	"io"
)

// ADM-31 screen geometry.
const (
	ADM31Cols = 80
	ADM31Rows = 24
)

const (
	esc         = 0x1b
	adm31Clear  = '*'
	adm31Locate = '='
	adm31Bias   = ' '
)

// ADM31 writes the ADM-31 escape protocol byte for byte:
// clear is ESC '*', cursor addressing is ESC '=' row+32 col+32.
type ADM31 struct {
	w        *bufio.Writer
	col, row int
}

// NewADM31 returns an ADM-31 driver writing to w.
func NewADM31(w io.Writer) *ADM31 {
	return &ADM31{w: bufio.NewWriter(w)}
}

func (a *ADM31) Clear() {
	a.w.WriteByte(esc)
	a.w.WriteByte(adm31Clear)
	a.col, a.row = 0, 0
}

func (a *ADM31) MoveCursor(col, row int) {
	a.w.WriteByte(esc)
	a.w.WriteByte(adm31Locate)
	a.w.WriteByte(byte(adm31Bias + row))
	a.w.WriteByte(byte(adm31Bias + col))
	a.col, a.row = col, row
}

func (a *ADM31) Write(s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			a.w.WriteString("\r\n")
			a.col = 0
			a.row++
		case '\r':
			a.w.WriteByte(c)
			a.col = 0
		case '\b':
			a.w.WriteByte(c)
			if a.col > 0 {
				a.col--
			}
		default:
			a.w.WriteByte(c)
			a.col++
		}
	}
}

func (a *ADM31) Cursor() (int, int) {
	return a.col, a.row
}

func (a *ADM31) Size() (int, int) {
	return ADM31Cols, ADM31Rows
}

func (a *ADM31) Flush() error {
	return a.w.Flush()
}
