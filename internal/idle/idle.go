// Package idle launches the saver in a tmux popup once the attached client
// has been idle long enough.
package idle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

const (
	DefaultTimeout  = 300 * time.Second
	DefaultInterval = 5 * time.Second
)

// ErrNotInTmux is returned when the watcher is started outside tmux.
var ErrNotInTmux = errors.New("not running inside tmux")

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Watcher polls tmux for client activity and pops up the saver.
type Watcher struct {
	// Exe is the saver binary started in the popup.
	Exe string
	// Words are passed through to the saver (lock, blank).
	Words    []string
	Timeout  time.Duration
	Interval time.Duration
	Logger   *slog.Logger

	// Output runs tmux queries. Popup runs the interactive popup.
	// Both default to exec-based implementations.
	Output Runner
	Popup  Runner
	Now    func() time.Time
}

func (w *Watcher) setDefaults() {
	if w.Timeout <= 0 {
		w.Timeout = DefaultTimeout
	}
	if w.Interval <= 0 {
		w.Interval = DefaultInterval
	}
	if w.Logger == nil {
		w.Logger = slog.New(slog.DiscardHandler)
	}
	if w.Output == nil {
		w.Output = execOutput
	}
	if w.Popup == nil {
		w.Popup = execInteractive
	}
	if w.Now == nil {
		w.Now = time.Now
	}
}

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// The popup is not tied to ctx: a lock prompt in progress must not be
// killed when the watcher is signalled.
func execInteractive(_ context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return nil, cmd.Run()
}

// Run polls until ctx is done. After a trigger it waits for the client to
// become active again before it can trigger another popup, since popup
// input does not update tmux's client_activity.
func (w *Watcher) Run(ctx context.Context) error {
	w.setDefaults()
	if os.Getenv("TMUX") == "" {
		return ErrNotInTmux
	}

	w.Logger.Info("idle watcher started", "timeout", w.Timeout, "interval", w.Interval)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	waitingForActivity := false
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("idle watcher stopped")
			return nil
		case <-ticker.C:
			waitingForActivity = w.poll(ctx, waitingForActivity)
		}
	}
}

// poll checks idle time once and reports whether the watcher should wait
// for activity before the next trigger.
func (w *Watcher) poll(ctx context.Context, waitingForActivity bool) bool {
	idle, err := w.IdleTime(ctx)
	if err != nil {
		w.Logger.Debug("reading client activity", "err", err)
		return waitingForActivity
	}

	if waitingForActivity {
		return idle >= w.Timeout
	}
	if idle >= w.Timeout {
		w.Trigger(ctx)
		return true
	}
	return false
}

// IdleTime returns how long the tmux client has been inactive.
func (w *Watcher) IdleTime(ctx context.Context) (time.Duration, error) {
	w.setDefaults()
	out, err := w.Output(ctx, "tmux", "display-message", "-p", "#{client_activity}")
	if err != nil {
		return 0, fmt.Errorf("get client activity: %w", err)
	}
	return ParseActivity(out, w.Now())
}

// ParseActivity turns tmux's client_activity output (Unix seconds) into
// an idle duration relative to now. Clock skew never yields a negative
// duration.
func ParseActivity(out []byte, now time.Time) (time.Duration, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, errors.New("empty activity timestamp")
	}

	activity, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse activity timestamp: %w", err)
	}
	return time.Duration(max(now.Unix()-activity, 0)) * time.Second, nil
}

// Trigger opens the saver in a full-screen popup and waits for it to exit.
func (w *Watcher) Trigger(ctx context.Context) {
	w.setDefaults()
	w.Logger.Info("triggering saver")
	if _, err := w.Popup(ctx, "tmux", w.PopupArgs()...); err != nil {
		w.Logger.Warn("saver popup failed", "err", err)
	}
}

// PopupArgs returns the tmux arguments for the saver popup. tmux hands
// the command string to the shell, so each word is quoted.
func (w *Watcher) PopupArgs() []string {
	cmd := append([]string{w.Exe}, w.Words...)
	return []string{
		"display-popup",
		"-E",
		"-w", "100%",
		"-h", "100%",
		shellquote.Join(cmd...),
	}
}
