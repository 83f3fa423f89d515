package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/vidbot/core/config"
	coretelegram "github.com/m3rciful/vidbot/core/telegram"
)

type carrier struct{ cfg coreconfig.Config }

func (c *carrier) CoreConfig() *coreconfig.Config { return &c.cfg }

type app struct{}

func (app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func TestRunPassesMissingErrorThrough(t *testing.T) {
	err := Run(Options{
		EnvFiles: []string{},
		LoadConfig: func(string) (ConfigCarrier, error) {
			return nil, &coreconfig.MissingError{Keys: []string{"API_ID", "OWNER_ID"}}
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			t.Fatal("bootstrap must not run")
			return nil, nil
		},
	})
	var missing *coreconfig.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"API_ID", "OWNER_ID"}, missing.Keys)
}

func TestRunLoadsEnvFileAndHooks(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("VIDBOT_RUNNER_PROBE=from-file\n"), 0o600))
	t.Setenv("VIDBOT_RUNNER_PROBE", "")
	require.NoError(t, os.Unsetenv("VIDBOT_RUNNER_PROBE"))
	t.Setenv("CONFIG_PATH", "")

	var seenPath, probe string
	var started, stopped bool
	err := Run(Options{
		EnvFiles: []string{envFile, filepath.Join(t.TempDir(), "absent.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			seenPath = path
			probe = os.Getenv("VIDBOT_RUNNER_PROBE")
			return &carrier{}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app{}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	assert.Empty(t, seenPath)
	assert.Equal(t, "from-file", probe)
	assert.True(t, started)
	assert.True(t, stopped)
}
