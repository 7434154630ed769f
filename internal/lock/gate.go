package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"scrsav/internal/display"
)

// Gate decides whether a typed passphrase unlocks the screen. The zero
// value is a disabled gate that lets any key through.
type Gate struct {
	hash []byte
}

// NewGate stores the contents of secret. An empty secret yields a
// disabled gate. cost is the bcrypt cost; 0 selects bcrypt.DefaultCost.
func NewGate(secret *SecureBuffer, cost int) (*Gate, error) {
	if secret == nil || secret.Len() == 0 {
		return &Gate{}, nil
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	pw := secret.Bytes()
	defer ClearBytes(pw)

	hash, err := bcrypt.GenerateFromPassword(pw, cost)
	if err != nil {
		return nil, fmt.Errorf("hashing passphrase: %w", err)
	}
	return &Gate{hash: hash}, nil
}

// Enabled reports whether a passphrase was set.
func (g *Gate) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Match reports whether candidate equals the stored passphrase, ignoring
// case. A disabled gate matches everything.
func (g *Gate) Match(candidate []byte) bool {
	if !g.Enabled() {
		return true
	}

	folded := make([]byte, len(candidate))
	defer ClearBytes(folded)
	for i, c := range candidate {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		folded[i] = c
	}

	err := bcrypt.CompareHashAndPassword(g.hash, folded)
	return err == nil
}

// Prompt reads a masked passphrase from keys, echoing '*' on out for each
// accepted character. BS and DEL erase the last character; Enter, newline
// or Escape finish. Input past maxLen-1 characters is dropped. Keys pending
// before the call are discarded. A nil logger discards output.
func Prompt(ctx context.Context, keys display.Keyboard, out display.Terminal, maxLen int, logger *slog.Logger) (*SecureBuffer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	display.Drain(keys)
	sb := NewSecureBuffer(maxLen)

	for {
		k, err := keys.WaitKey(ctx)
		if err != nil {
			sb.Destroy()
			if errors.Is(err, display.ErrClosed) {
				return nil, fmt.Errorf("reading passphrase: %w", err)
			}
			return nil, err
		}

		switch {
		case k == display.KeyBackspace || k == display.KeyDelete:
			if sb.Backspace() {
				out.Write("\b \b")
			}
		case k == display.KeyEnter || k == display.KeyNewline || k == display.KeyEscape:
			return sb, nil
		case sb.AppendRune(k):
			out.Write("*")
		default:
			continue
		}
		if err := out.Flush(); err != nil {
			logger.Debug("flush failed", "err", err)
		}
	}
}
