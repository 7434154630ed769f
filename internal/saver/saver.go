package saver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scrsav/internal/clock"
	"scrsav/internal/display"
	"scrsav/internal/lock"
	"scrsav/internal/rng"
)

// ---- Constants

const (
	// Draws between clock row moves.
	relocateEvery = 100
	// Draws between screen clears and RNG reseeds.
	resetEvery = 500

	markerDot   = '.'
	markerBlank = ' '

	// Wide enough to cover "hh:mm:ss" plus one.
	clockBlank = "         "

	defaultBannerPause  = 3 * time.Second
	defaultRetryPause   = time.Second
	defaultPollInterval = 50 * time.Millisecond
)

// ---- Configuration

// Config selects run modes and timings. Zero durations take defaults.
type Config struct {
	// Words are the command-line words, echoed in the banner.
	Words []string
	// Lock asks for a passphrase at startup.
	Lock bool
	// Blank suppresses the marker and clock.
	Blank bool
	// BcryptCost is passed to lock.NewGate.
	BcryptCost int

	BannerPause  time.Duration
	RetryPause   time.Duration
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BannerPause == 0 {
		c.BannerPause = defaultBannerPause
	}
	if c.RetryPause == 0 {
		c.RetryPause = defaultRetryPause
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// ---- Saver State

// Saver runs the screensaver over one terminal and keyboard.
type Saver struct {
	cfg   Config
	term  display.Terminal
	keys  display.Keyboard
	clock clock.Source
	log   *slog.Logger
	sleep func(context.Context, time.Duration) error

	gate   *lock.Gate
	rng    rng.Generator
	seed   uint32
	marker rune
	count  int
	row    int // clock display row
}

// New wires a saver. A nil logger discards output.
func New(cfg Config, term display.Terminal, keys display.Keyboard, src clock.Source, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Saver{
		cfg:    cfg.withDefaults(),
		term:   term,
		keys:   keys,
		clock:  src,
		log:    logger,
		sleep:  sleepContext,
		gate:   &lock.Gate{},
		marker: markerDot,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run shows the banner, optionally sets up the passphrase, and animates
// until a key press ends it (after the passphrase, when one is set).
// The screen is blanked on return.
func (s *Saver) Run(ctx context.Context) error {
	if err := s.startup(ctx); err != nil {
		return err
	}
	defer s.blank()

	s.log.Info("saver started", "blank", s.cfg.Blank, "locked", s.gate.Enabled())

	for {
		s.term.Clear()
		s.flush()

		if err := s.animate(ctx); err != nil {
			return err
		}
		if !s.gate.Enabled() {
			return nil
		}

		ok, err := s.relock(ctx)
		if err != nil {
			return err
		}
		if ok {
			s.log.Info("unlocked")
			return nil
		}
	}
}

func (s *Saver) blank() {
	s.term.Clear()
	s.flush()
}

func (s *Saver) flush() {
	if err := s.term.Flush(); err != nil {
		s.log.Debug("flush failed", "err", err)
	}
}

// ---- Startup

const bannerText = "Screen Saver\n"

const setupText = "Enter the passphrase that will be used to unlock the screen.\n" +
	"(CTRL-H to BS/DEL, RETURN or ESC to end, 1-6 characters)\n" +
	"Password:"

const helpText = "\nProgram runs until a key is pressed.\n" +
	"If 'lock' is provided as argument, program will ask user to establish\n" +
	"a 1-6 characters long passphrase to be used to unlock the screen.\n" +
	"If 'blank' is provided as argument, the screen will be blanked\n" +
	"for the duration of the run instead of displaying time and random\n" +
	"dots.\n"

func (s *Saver) startup(ctx context.Context) error {
	s.term.Clear()
	s.term.Write(bannerText)
	for _, w := range s.cfg.Words {
		s.term.Write("Argument: " + strings.ToLower(w) + "\n")
	}

	if s.cfg.Lock {
		if err := s.setupPassphrase(ctx); err != nil {
			return err
		}
	}

	s.term.Write(helpText)
	s.flush()
	if err := s.sleep(ctx, s.cfg.BannerPause); err != nil {
		return err
	}

	if n := display.Drain(s.keys); n > 0 {
		s.log.Debug("dropped pending keys", "count", n)
	}
	st := s.clock.Read()
	s.seed = st.Pack()
	s.rng.Seed(s.seed)
	s.log.Debug("seeded", "seed", s.seed)
	return nil
}

func (s *Saver) setupPassphrase(ctx context.Context) error {
	s.term.Write(setupText)
	s.flush()

	sb, err := lock.Prompt(ctx, s.keys, s.term, lock.DefaultMaxLen, s.log)
	if err != nil {
		return fmt.Errorf("setting passphrase: %w", err)
	}
	defer sb.Destroy()
	s.term.Write("\n")

	gate, err := lock.NewGate(sb, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("setting passphrase: %w", err)
	}
	s.gate = gate
	return nil
}

// ---- Animation

// animate runs until a key is pressed. Keys are only checked between
// iterations, so a press may take up to a second to register.
func (s *Saver) animate(ctx context.Context) error {
	if s.cfg.Blank {
		_, err := s.keys.WaitKey(ctx)
		return ignoreClosed(err)
	}

	for {
		k, err := s.keys.PollKey()
		if err != nil {
			return ignoreClosed(err)
		}
		if k != display.KeyNone {
			return nil
		}

		sec := s.step()
		if _, err := clock.WaitTick(ctx, s.clock, sec, s.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// ignoreClosed treats a vanished keyboard as a key press so the loop
// cannot run forever without input.
func ignoreClosed(err error) error {
	if errors.Is(err, display.ErrClosed) {
		return nil
	}
	return err
}

// step draws one marker, keeps the counters, and refreshes the clock.
// It returns the second the clock showed.
func (s *Saver) step() byte {
	cols, rows := s.term.Size()

	row := rng.Scale(s.rng.Next(), rows)
	col := rng.Scale(s.rng.Next(), cols)
	s.term.MoveCursor(col, row)
	s.term.Write(string(s.marker))
	if s.marker == markerDot {
		s.marker = markerBlank
	} else {
		s.marker = markerDot
	}

	s.count++
	if s.count%relocateEvery == 0 {
		s.relocateClock(rows)
	}
	if s.count >= resetEvery {
		s.count = 0
		s.rng.Seed(s.seed)
		s.term.Clear()
		s.log.Debug("reset", "seed", s.seed)
	}

	st := s.clock.Read()
	s.term.MoveCursor(0, s.clampRow(rows))
	s.term.Write(clock.Format(st))
	s.flush()
	return st.Second
}

func (s *Saver) relocateClock(rows int) {
	s.term.MoveCursor(0, s.clampRow(rows))
	s.term.Write(clockBlank)
	s.row++
	if s.row >= rows {
		s.row = 0
	}
	s.log.Debug("clock moved", "row", s.row)
}

// clampRow keeps the clock row valid after the terminal shrinks.
func (s *Saver) clampRow(rows int) int {
	if s.row >= rows {
		s.row = 0
	}
	return s.row
}

// ---- Relock

// relock asks for the passphrase once. A mismatch shows a message and
// pauses before returning false.
func (s *Saver) relock(ctx context.Context) (bool, error) {
	_, rows := s.term.Size()
	bottom := max(rows-1, 0)

	s.term.MoveCursor(0, bottom)
	s.term.Write("Password:")
	s.flush()

	sb, err := lock.Prompt(ctx, s.keys, s.term, lock.DefaultMaxLen, s.log)
	if err != nil {
		return false, fmt.Errorf("reading passphrase: %w", err)
	}
	candidate := sb.Bytes()
	sb.Destroy()
	defer lock.ClearBytes(candidate)

	if s.gate.Match(candidate) {
		return true, nil
	}

	s.log.Info("invalid passphrase")
	s.term.MoveCursor(0, bottom)
	s.term.Write("Invalid password.")
	s.flush()
	return false, s.sleep(ctx, s.cfg.RetryPause)
}
