package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/scheduler"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults when no file exists", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Setenv("STAGEPORT_CONFIG", "")

		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
		require.NoError(t, cfg.Validate())
	})

	t.Run("reads a yaml file", func(t *testing.T) {
		path := writeFile(t, "stageport.yaml", `
stage:
  default_container: overlay
  defer_initial_pass: false
  zero_priority: 10
manager:
  commit_strategy: debounced
  debounce: 250ms
log:
  file: /tmp/stageport.log
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "overlay", cfg.Stage.DefaultContainer)
		require.False(t, cfg.Stage.DeferInitialPass)
		require.InDelta(t, 10.0, cfg.Stage.ZeroPriority, 0)
		require.Equal(t, "debounced", cfg.Manager.CommitStrategy)
		require.Equal(t, 250*time.Millisecond, cfg.Manager.Debounce)
		require.Equal(t, "/tmp/stageport.log", cfg.Log.File)
		require.Equal(t, path, cfg.File)
	})

	t.Run("reads a toml file named by STAGEPORT_CONFIG", func(t *testing.T) {
		path := writeFile(t, "stageport.toml", `
[manager]
commit_strategy = "next-tick"
`)
		t.Setenv("STAGEPORT_CONFIG", path)

		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, "next-tick", cfg.Manager.CommitStrategy)
		require.Equal(t, DefaultDebounce, cfg.Manager.Debounce)
		require.Equal(t, DefaultContainerID, cfg.Stage.DefaultContainer)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeFile(t, "stageport.yaml", "manager:\n  commit_strategy: next-tick\n")
		t.Setenv("STAGEPORT_MANAGER_COMMIT_STRATEGY", "debounced")
		t.Setenv("STAGEPORT_STAGE_ZERO_PRIORITY", "-3")

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, "debounced", cfg.Manager.CommitStrategy)
		require.InDelta(t, -3.0, cfg.Stage.ZeroPriority, 0)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read config")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Manager.CommitStrategy = "eventually" },
			wantErr: "manager.commit_strategy",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Manager.Debounce = -time.Second },
			wantErr: "must not be negative",
		},
		{
			name:    "padded container id",
			mutate:  func(c *Config) { c.Stage.DefaultContainer = " overlay" },
			wantErr: "surrounding whitespace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStrategy(t *testing.T) {
	t.Parallel()

	cfg := Default()
	kind, err := cfg.Strategy()
	require.NoError(t, err)
	require.Equal(t, scheduler.KindImmediate, kind)

	cfg.Manager.CommitStrategy = "sometimes"
	_, err = cfg.Strategy()
	require.ErrorIs(t, err, sperrors.ErrUnknownStrategy)
}

func TestLines(t *testing.T) {
	t.Parallel()

	lines := Default().Lines()
	require.Contains(t, lines, "config file = (none)")
	require.Contains(t, lines, "manager.debounce = 120ms")
	require.Contains(t, lines, "stage.default_container = stageport-portals")
	require.Contains(t, lines, "stage.defer_initial_pass = true")
}
