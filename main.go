package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/crypto/bcrypt"

	"scrsav/internal/clock"
	"scrsav/internal/display"
	"scrsav/internal/idle"
	"scrsav/internal/saver"
)

func main() {
	defer memguard.Purge()

	a := app{runSaver: execSaver, runIdle: execIdle}
	if code := a.main(os.Args[1:]); code != 0 {
		memguard.SafeExit(code)
	}
}

// main runs the command tree and returns the process exit status.
// SIGINT and SIGTERM only cancel the context, so deferred terminal
// restores in the commands still run.
func (a app) main(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.command().ParseAndRun(ctx, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// ============================================================================
// Command line
// ============================================================================

type saverOptions struct {
	words      []string
	lock       bool
	blank      bool
	adm31      bool
	logFile    string
	bcryptCost int
	pause      time.Duration
}

type idleOptions struct {
	words   []string
	timeout time.Duration
	once    bool
	logFile string
}

type app struct {
	runSaver func(context.Context, saverOptions) error
	runIdle  func(context.Context, idleOptions) error
}

func (a app) command() *ffcli.Command {
	rootFlagSet := flag.NewFlagSet("scrsav", flag.ContinueOnError)
	lock := rootFlagSet.Bool("lock", false, "Ask for a 1-6 character passphrase that unlocks the screen")
	blank := rootFlagSet.Bool("blank", false, "Keep the screen blank instead of drawing dots and the clock")
	adm31 := rootFlagSet.Bool("adm31", false, "Write raw ADM-31 escape sequences to stdout instead of using the terminal library")
	logFile := rootFlagSet.String("log-file", "", "Append debug logs to this file")
	bcryptCost := rootFlagSet.Int("bcrypt-cost", bcrypt.DefaultCost, "Cost used to hash the passphrase")
	pause := rootFlagSet.Duration("pause", 3*time.Second, "How long the banner stays up before the saver starts")

	idleFlagSet := flag.NewFlagSet("scrsav idle", flag.ContinueOnError)
	idleTimeout := idleFlagSet.Int("timeout", int(idle.DefaultTimeout/time.Second), "Idle timeout in seconds before triggering the saver")
	idleOnce := idleFlagSet.Bool("once", false, "Trigger the saver immediately and exit")
	idleLogFile := idleFlagSet.String("log-file", "", "Append debug logs to this file")

	idleCmd := &ffcli.Command{
		Name:       "idle",
		ShortUsage: "scrsav idle [flags] [lock] [blank]",
		ShortHelp:  "Open the saver in a tmux popup when the client goes idle",
		FlagSet:    idleFlagSet,
		Options:    []ff.Option{ff.WithEnvVarPrefix("SCRSAV_IDLE")},
		Exec: func(ctx context.Context, args []string) error {
			return a.runIdle(ctx, idleOptions{
				words:   args,
				timeout: time.Duration(*idleTimeout) * time.Second,
				once:    *idleOnce,
				logFile: *idleLogFile,
			})
		},
	}

	return &ffcli.Command{
		ShortUsage:  "scrsav [flags] [lock] [blank] | scrsav idle [flags]",
		ShortHelp:   "A terminal screensaver with a drifting dot and a clock",
		LongHelp:    "Words:\n  lock    Set a passphrase; it must be retyped to leave the saver\n  blank   Show only a blank screen\n\nAny key exits the saver.",
		FlagSet:     rootFlagSet,
		Options:     []ff.Option{ff.WithEnvVarPrefix("SCRSAV")},
		Subcommands: []*ffcli.Command{idleCmd},
		Exec: func(ctx context.Context, args []string) error {
			wl, wb := parseWords(args)
			return a.runSaver(ctx, saverOptions{
				words:      args,
				lock:       *lock || wl,
				blank:      *blank || wb,
				adm31:      *adm31,
				logFile:    *logFile,
				bcryptCost: *bcryptCost,
				pause:      *pause,
			})
		},
	}
}

// parseWords scans positional words in any order and case. Unknown words
// are left for the banner to echo.
func parseWords(args []string) (lock, blank bool) {
	for _, a := range args {
		switch strings.ToLower(a) {
		case "lock":
			lock = true
		case "blank":
			blank = true
		}
	}
	return lock, blank
}

// ============================================================================
// Logging
// ============================================================================

// setupLogging sends logs to path, or discards them when path is empty.
// The terminal belongs to the saver, so nothing is logged to it.
func setupLogging(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, f.Close, nil
}

// ============================================================================
// Saver command
// ============================================================================

func execSaver(ctx context.Context, opts saverOptions) error {
	logger, closeLog, err := setupLogging(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	var (
		term display.Terminal
		keys display.Keyboard
	)
	if opts.adm31 {
		kb, err := display.OpenRawKeyboard(os.Stdin)
		if err != nil {
			return err
		}
		defer kb.Close()
		term, keys = display.NewADM31(os.Stdout), kb
	} else {
		sc, err := display.NewScreen()
		if err != nil {
			return err
		}
		defer sc.Close()
		term, keys = sc, sc
	}

	s := saver.New(saver.Config{
		Words:       opts.words,
		Lock:        opts.lock,
		Blank:       opts.blank,
		BcryptCost:  opts.bcryptCost,
		BannerPause: opts.pause,
	}, term, keys, clock.System{}, logger)

	err = s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ============================================================================
// Idle watcher command
// ============================================================================

func execIdle(ctx context.Context, opts idleOptions) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding executable path: %w", err)
	}

	logger, closeLog, err := setupLogging(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	w := &idle.Watcher{
		Exe:     exePath,
		Words:   opts.words,
		Timeout: opts.timeout,
		Logger:  logger,
	}
	if opts.once {
		w.Trigger(ctx)
		return nil
	}
	return w.Run(ctx)
}
