package clock

import (
	"context"
	"time"
)

// Stamp is a clock reading with packed-BCD time fields.
type Stamp struct {
	Day    uint16 // day 1 is 1978-01-01
	Hour   byte
	Minute byte
	Second byte
}

// Pack returns the stamp as the 32-bit timestamp word: day in the low
// half, then hour and minute bytes.
func (s Stamp) Pack() uint32 {
	return uint32(s.Day) | uint32(s.Hour)<<16 | uint32(s.Minute)<<24
}

// Source is anything that can be read for the current time.
type Source interface {
	Read() Stamp
}

var epoch = time.Date(1977, time.December, 31, 0, 0, 0, 0, time.UTC)

// System reads the host clock in local time.
type System struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s System) Read() Stamp {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return FromTime(now())
}

// FromTime encodes t as a Stamp.
func FromTime(t time.Time) Stamp {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(midnight.Sub(epoch).Hours() / 24)
	return Stamp{
		Day:    uint16(max(days, 0)),
		Hour:   ToBCD(t.Hour()),
		Minute: ToBCD(t.Minute()),
		Second: ToBCD(t.Second()),
	}
}

// ToBCD packs n (0-99) into one BCD byte.
func ToBCD(n int) byte {
	n %= 100
	return byte(n/10)<<4 | byte(n%10)
}

const nibbles = "0123456789abcdef"

// Digits renders a packed BCD byte as its two characters.
func Digits(b byte) string {
	return string([]byte{nibbles[b>>4], nibbles[b&0x0f]})
}

// Format renders s as hh:mm:ss.
func Format(s Stamp) string {
	return Digits(s.Hour) + ":" + Digits(s.Minute) + ":" + Digits(s.Second)
}

// WaitTick re-reads src every interval until its second field differs
// from last, and returns that reading.
func WaitTick(ctx context.Context, src Source, last byte, interval time.Duration) (Stamp, error) {
	if st := src.Read(); st.Second != last {
		return st, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Stamp{}, ctx.Err()
		case <-ticker.C:
			if st := src.Read(); st.Second != last {
				return st, nil
			}
		}
	}
}
