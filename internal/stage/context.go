package stage

import (
	"context"

	sperrors "stageport.dev/stageport/internal/errors"
)

// WrapperName names the call that binds a stage to a context. It appears in
// configuration errors so the fix is obvious.
const WrapperName = "stage.WithStage"

type hostKey struct{}

// WithStage returns a context carrying h for the portals and containers
// declared beneath it
func WithStage(ctx context.Context, h Host) context.Context {
	return context.WithValue(ctx, hostKey{}, h)
}

// FromContext returns the stage bound to ctx. component names the caller in
// the configuration error returned when there is none.
func FromContext(ctx context.Context, component string) (Host, error) {
	if ctx == nil {
		return nil, sperrors.NewConfigurationError(component, WrapperName)
	}
	// context values are untyped, so this is a structural check
	h, ok := ctx.Value(hostKey{}).(Host)
	if !ok || h == nil {
		return nil, sperrors.NewConfigurationError(component, WrapperName)
	}
	return h, nil
}
