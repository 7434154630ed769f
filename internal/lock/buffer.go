// Package lock implements the passphrase gate: masked entry into a locked
// memory buffer and comparison against the stored passphrase.
package lock

import (
	"unicode"

	"github.com/awnumar/memguard"
)

// DefaultMaxLen is the passphrase buffer size, terminator included,
// so at most six characters are kept.
const DefaultMaxLen = 7

// SecureBuffer holds passphrase input in guarded memory. It keeps at most
// maxLen-1 characters; anything typed past that is dropped.
type SecureBuffer struct {
	buf *memguard.LockedBuffer
	n   int
}

// NewSecureBuffer returns an empty buffer holding up to maxLen-1
// characters. maxLen below 2 is raised to 2.
func NewSecureBuffer(maxLen int) *SecureBuffer {
	return &SecureBuffer{buf: memguard.NewBuffer(max(maxLen, 2) - 1)}
}

// Cap returns the number of characters the buffer can hold.
func (sb *SecureBuffer) Cap() int {
	return sb.buf.Size()
}

// AppendRune stores r lowercased. It reports false for runes outside
// printable ASCII and for runes past capacity.
func (sb *SecureBuffer) AppendRune(r rune) bool {
	if r < 32 || r >= 127 || sb.n >= sb.Cap() {
		return false
	}
	sb.buf.Bytes()[sb.n] = byte(unicode.ToLower(r))
	sb.n++
	return true
}

// AppendString appends each rune of s, stopping silently at capacity.
func (sb *SecureBuffer) AppendString(s string) {
	for _, r := range s {
		sb.AppendRune(r)
	}
}

// Backspace removes the last character. It returns false if the buffer
// was already empty.
func (sb *SecureBuffer) Backspace() bool {
	if sb.n == 0 {
		return false
	}
	sb.n--
	sb.buf.Bytes()[sb.n] = 0
	return true
}

// Len returns the number of stored characters.
func (sb *SecureBuffer) Len() int {
	return sb.n
}

// Bytes returns a copy of the contents. Wipe it with ClearBytes.
func (sb *SecureBuffer) Bytes() []byte {
	out := make([]byte, sb.n)
	copy(out, sb.buf.Bytes()[:sb.n])
	return out
}

// Clear wipes the contents and keeps the buffer usable.
func (sb *SecureBuffer) Clear() {
	memguard.WipeBytes(sb.buf.Bytes())
	sb.n = 0
}

// Destroy releases the guarded memory. The buffer must not be used after.
func (sb *SecureBuffer) Destroy() {
	sb.buf.Destroy()
	sb.n = 0
}

// ClearBytes overwrites b with zeroes.
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}
