package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseWords(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantLock  bool
		wantBlank bool
	}{
		{name: "none", args: nil},
		{name: "lock", args: []string{"lock"}, wantLock: true},
		{name: "upper case blank", args: []string{"BLANK"}, wantBlank: true},
		{name: "both any order", args: []string{"Blank", "LoCk"}, wantLock: true, wantBlank: true},
		{name: "unknown ignored", args: []string{"sparkle", "lock"}, wantLock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lock, blank := parseWords(tt.args)
			assert.Equal(t, tt.wantLock, lock)
			assert.Equal(t, tt.wantBlank, blank)
		})
	}
}

// recorder captures what the CLI would run.
type recorder struct {
	saver *saverOptions
	idle  *idleOptions
}

func (r *recorder) app() app {
	return app{
		runSaver: func(_ context.Context, o saverOptions) error { r.saver = &o; return nil },
		runIdle:  func(_ context.Context, o idleOptions) error { r.idle = &o; return nil },
	}
}

func TestCommand_Words(t *testing.T) {
	var r recorder
	require.NoError(t, r.app().command().ParseAndRun(context.Background(), []string{"LOCK", "blank"}))

	require.NotNil(t, r.saver)
	assert.True(t, r.saver.lock)
	assert.True(t, r.saver.blank)
	assert.False(t, r.saver.adm31)
	assert.Equal(t, []string{"LOCK", "blank"}, r.saver.words)
	assert.Equal(t, bcrypt.DefaultCost, r.saver.bcryptCost)
	assert.Equal(t, 3*time.Second, r.saver.pause)
}

func TestCommand_Flags(t *testing.T) {
	var r recorder
	args := []string{"-lock", "-adm31", "-pause", "500ms", "-bcrypt-cost", "4"}
	require.NoError(t, r.app().command().ParseAndRun(context.Background(), args))

	require.NotNil(t, r.saver)
	assert.True(t, r.saver.lock)
	assert.False(t, r.saver.blank)
	assert.True(t, r.saver.adm31)
	assert.Equal(t, 500*time.Millisecond, r.saver.pause)
	assert.Equal(t, 4, r.saver.bcryptCost)
	assert.Empty(t, r.saver.words)
}

func TestCommand_EnvConfig(t *testing.T) {
	t.Setenv("SCRSAV_BLANK", "true")
	t.Setenv("SCRSAV_LOG_FILE", "/tmp/scrsav.log")

	var r recorder
	require.NoError(t, r.app().command().ParseAndRun(context.Background(), nil))

	require.NotNil(t, r.saver)
	assert.True(t, r.saver.blank)
	assert.Equal(t, "/tmp/scrsav.log", r.saver.logFile)
}

func TestCommand_Idle(t *testing.T) {
	var r recorder
	args := []string{"idle", "-timeout", "60", "-once", "lock"}
	require.NoError(t, r.app().command().ParseAndRun(context.Background(), args))

	assert.Nil(t, r.saver)
	require.NotNil(t, r.idle)
	assert.Equal(t, time.Minute, r.idle.timeout)
	assert.True(t, r.idle.once)
	assert.Equal(t, []string{"lock"}, r.idle.words)
}

func TestCommand_Help(t *testing.T) {
	var r recorder
	cmd := r.app().command()
	cmd.FlagSet.SetOutput(discard{})

	err := cmd.ParseAndRun(context.Background(), []string{"-h"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Nil(t, r.saver)
}

func TestMain_InterruptCancelsAndCleansUp(t *testing.T) {
	cleaned := false
	a := app{
		runSaver: func(ctx context.Context, _ saverOptions) error {
			defer func() { cleaned = true }()
			require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("interrupt did not cancel the context")
			}
		},
	}

	assert.Equal(t, 0, a.main(nil))
	assert.True(t, cleaned, "deferred cleanup should run before exit")
}

func TestMain_ErrorExitStatus(t *testing.T) {
	a := app{
		runSaver: func(context.Context, saverOptions) error { return errors.New("screen init failed") },
	}
	assert.Equal(t, 1, a.main([]string{"blank"}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSetupLogging_DisabledByDefault(t *testing.T) {
	logger, closeLog, err := setupLogging("")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NoError(t, closeLog())
	assert.False(t, logger.Enabled(context.Background(), 0))
}

func TestSetupLogging_EnabledWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrsav.log")

	logger, closeLog, err := setupLogging(path)
	require.NoError(t, err)
	logger.Debug("test log message", "key", "value")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test log message")
	assert.Contains(t, string(data), "key=value")
}

func TestSetupLogging_BadPath(t *testing.T) {
	_, _, err := setupLogging(filepath.Join(t.TempDir(), "missing", "scrsav.log"))
	assert.Error(t, err)
}
