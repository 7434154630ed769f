package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		in   byte
		want string
	}{
		{0x00, "00"},
		{0x09, "09"},
		{0x45, "45"},
		{0x59, "59"},
		{0x23, "23"},
		{0x1a, "1a"}, // not valid BCD, rendered nibble by nibble
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Digits(tt.in), "Digits(%#x)", tt.in)
	}
}

func TestToBCD(t *testing.T) {
	assert.Equal(t, byte(0x00), ToBCD(0))
	assert.Equal(t, byte(0x07), ToBCD(7))
	assert.Equal(t, byte(0x45), ToBCD(45))
	assert.Equal(t, byte(0x99), ToBCD(99))
	assert.Equal(t, byte(0x01), ToBCD(101))
}

func TestFormat(t *testing.T) {
	s := Stamp{Hour: 0x09, Minute: 0x05, Second: 0x59}
	assert.Equal(t, "09:05:59", Format(s))
}

func TestFromTime(t *testing.T) {
	tm := time.Date(1978, time.January, 1, 13, 7, 42, 0, time.UTC)
	s := FromTime(tm)
	assert.Equal(t, uint16(1), s.Day)
	assert.Equal(t, "13:07:42", Format(s))

	later := FromTime(time.Date(1978, time.February, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, uint16(32), later.Day)
}

func TestPack(t *testing.T) {
	s := Stamp{Day: 0x1234, Hour: 0x21, Minute: 0x43, Second: 0x59}
	assert.Equal(t, uint32(0x43211234), s.Pack())
}

func TestSystem_UsesNow(t *testing.T) {
	fixed := time.Date(2020, time.April, 3, 22, 30, 5, 0, time.Local)
	s := System{Now: func() time.Time { return fixed }}.Read()
	assert.Equal(t, "22:30:05", Format(s))
}

// tickingSource advances one second every step reads.
type tickingSource struct {
	reads atomic.Int64
	step  int64
}

func (s *tickingSource) Read() Stamp {
	n := s.reads.Add(1) - 1
	return Stamp{Second: ToBCD(int(n/s.step) % 60)}
}

func TestWaitTick_ReturnsOnChange(t *testing.T) {
	src := &tickingSource{step: 3}
	st, err := WaitTick(context.Background(), src, 0x00, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), st.Second)
	assert.Equal(t, int64(4), src.reads.Load())
}

func TestWaitTick_AlreadyChanged(t *testing.T) {
	src := &tickingSource{step: 1}
	st, err := WaitTick(context.Background(), src, 0x30, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), st.Second)
}

func TestWaitTick_Cancelled(t *testing.T) {
	src := &tickingSource{step: 1 << 40}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := WaitTick(ctx, src, 0x00, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
