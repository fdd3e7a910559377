package runtime

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"stageport.dev/stageport/internal/config"
	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/output"
	"stageport.dev/stageport/internal/scene"
)

func newTestContext(t *testing.T, mutate func(*config.Config)) *Context {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	splog, err := output.NewSplogWithOptions(output.Options{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	return NewContext(cfg, splog)
}

func TestNewStage(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		ctx := newTestContext(t, nil)
		s, err := ctx.NewStage()
		require.NoError(t, err)
		require.True(t, s.Composing())
		require.Equal(t, config.DefaultContainerID, s.DefaultID())
		require.NotNil(t, s.Metrics())
		require.NotEmpty(t, s.ID())
	})

	t.Run("applies configuration", func(t *testing.T) {
		t.Parallel()
		ctx := newTestContext(t, func(c *config.Config) {
			c.Stage.DefaultContainer = "overlay"
			c.Stage.DeferInitialPass = false
			c.Stage.ZeroPriority = 5
			c.Manager.CommitStrategy = "next-tick"
		})
		s, err := ctx.NewStage()
		require.NoError(t, err)
		require.False(t, s.Composing())
		require.Equal(t, "overlay", s.DefaultID())

		s.Mount("", scene.P(4), "low")
		s.Mount("", scene.NoPriority, "zero")
		require.Equal(t, []any{"low", "zero"}, s.DefaultContainer().Manager().Payloads())

		// next-tick commits on the stage loop
		require.Equal(t, 1, s.Loop().Pending())
	})

	t.Run("stages are independent", func(t *testing.T) {
		t.Parallel()
		ctx := newTestContext(t, nil)
		a, err := ctx.NewStage()
		require.NoError(t, err)
		b, err := ctx.NewStage()
		require.NoError(t, err)
		require.NotEqual(t, a.ID(), b.ID())
		require.NotSame(t, a.Loop(), b.Loop())
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		t.Parallel()
		ctx := newTestContext(t, func(c *config.Config) { c.Manager.CommitStrategy = "later" })
		_, err := ctx.NewStage()
		require.ErrorIs(t, err, sperrors.ErrUnknownStrategy)
	})
}

func TestContextBinding(t *testing.T) {
	t.Parallel()

	_, err := GetContext(context.Background())
	require.ErrorContains(t, err, "runtime context is not initialized")

	rt := newTestContext(t, nil)
	got, err := GetContext(WithContext(context.Background(), rt))
	require.NoError(t, err)
	require.Same(t, rt, got)
}
