package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	sperrors "stageport.dev/stageport/internal/errors"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "configuration",
			err:      sperrors.NewConfigurationError("Portal", "stage.WithStage"),
			sentinel: sperrors.ErrNoStage,
			message:  "Portal must be used inside a stage: wrap the context with stage.WithStage before declaring it",
		},
		{
			name:     "duplicate with audit name",
			err:      sperrors.NewDuplicateContainerError("L", "Layer"),
			sentinel: sperrors.ErrDuplicateContainer,
			message:  `Layer "L" is already registered as a portal container; the last registration wins`,
		},
		{
			name:     "duplicate without audit name",
			err:      sperrors.NewDuplicateContainerError("L", ""),
			sentinel: sperrors.ErrDuplicateContainer,
			message:  `container "L" is already registered; the last registration wins`,
		},
		{
			name:     "script",
			err:      sperrors.NewScriptError("demo.yaml", 3, "unknown portal \"ghost\"", nil),
			sentinel: sperrors.ErrInvalidScript,
			message:  `scene script demo.yaml step 3: unknown portal "ghost"`,
		},
		{
			name:     "expectation",
			err:      &sperrors.ExpectationError{Step: 2, Container: "X", Want: []string{"A", "B"}, Got: []string{"B", "A"}},
			sentinel: sperrors.ErrExpectationFailed,
			message:  `step 2: container "X" order is [B, A], want [A, B]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.err, tt.sentinel)
			require.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
			require.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestScriptErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := sperrors.NewScriptError("missing.toml", 0, "failed to read", fs.ErrNotExist)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.ErrorIs(t, err, sperrors.ErrInvalidScript)
	require.Equal(t, "scene script missing.toml: failed to read: file does not exist", err.Error())

	var scriptErr *sperrors.ScriptError
	require.True(t, errors.As(fmt.Errorf("replay: %w", err), &scriptErr))
	require.Equal(t, "missing.toml", scriptErr.Path)
}
