package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"stageport.dev/stageport/internal/config"
	"stageport.dev/stageport/internal/metrics"
	"stageport.dev/stageport/internal/output"
	"stageport.dev/stageport/internal/scheduler"
	"stageport.dev/stageport/internal/stage"
)

// Context provides access to configuration and output for commands
type Context struct {
	Config config.Config
	Splog  *output.Splog
	Clock  clock.Clock
}

// Options selects where configuration and logs come from
type Options struct {
	ConfigPath string
	LogFile    string
	Debug      bool
	Writer     io.Writer // console output, defaults to stdout
}

// NewContext creates a context from an already loaded configuration
func NewContext(cfg config.Config, splog *output.Splog) *Context {
	if splog == nil {
		splog = output.NewSplog()
	}
	return &Context{
		Config: cfg,
		Splog:  splog,
		Clock:  clock.New(),
	}
}

// Load reads and validates configuration and opens the logger
func Load(opts Options) (*Context, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logFile := opts.LogFile
	if logFile == "" {
		logFile = cfg.Log.File
	}
	splog, err := output.NewSplogWithOptions(output.Options{
		Writer:      opts.Writer,
		LogFilePath: logFile,
		Debug:       opts.Debug,
	})
	if err != nil {
		return nil, err
	}
	return NewContext(cfg, splog), nil
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying rt
func WithContext(ctx context.Context, rt *Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, rt)
}

// GetContext returns the runtime context stored by WithContext
func GetContext(ctx context.Context) (*Context, error) {
	if ctx != nil {
		if rt, ok := ctx.Value(contextKey{}).(*Context); ok && rt != nil {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("runtime context is not initialized")
}

// NewStage builds a stage configured from c. The stage gets a fresh loop,
// its own metrics recorder and a generated id. Extra options are applied last.
func (c *Context) NewStage(opts ...stage.Option) (*stage.Stage, error) {
	kind, err := c.Config.Strategy()
	if err != nil {
		return nil, err
	}
	loop := scheduler.NewLoop()
	factory, err := scheduler.NewFactory(kind, loop, c.Clock, c.Config.Manager.Debounce)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	base := []stage.Option{
		stage.WithID(id),
		stage.WithLoop(loop),
		stage.WithStrategy(factory),
		stage.WithLogger(c.Splog),
		stage.WithMetrics(metrics.NewRecorder(id)),
		stage.WithZeroPriority(c.Config.Stage.ZeroPriority),
		stage.WithDefaultContainer(c.Config.Stage.DefaultContainer),
	}
	if !c.Config.Stage.DeferInitialPass {
		base = append(base, stage.WithImmediateStart())
	}
	s := stage.New(append(base, opts...)...)
	c.Splog.Debug("created stage %s (strategy %s)", id, kind)
	return s, nil
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
