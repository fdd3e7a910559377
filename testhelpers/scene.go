package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"stageport.dev/stageport/internal/metrics"
	"stageport.dev/stageport/internal/scheduler"
	"stageport.dev/stageport/internal/stage"
)

// Logger records warnings and debug messages instead of printing them
type Logger struct {
	Warnings []string
	Debugs   []string
}

// Warn records a warning
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}

// Debug records a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Debugs = append(l.Debugs, fmt.Sprintf(format, args...))
}

// Scene is a stage wired for tests: a recording logger, a metrics recorder,
// a manual loop and a mock clock.
type Scene struct {
	T       *testing.T
	Stage   *stage.Stage
	Loop    *scheduler.Loop
	Clock   *clock.Mock
	Logger  *Logger
	Metrics *metrics.Recorder
	Ctx     context.Context
}

// NewScene creates a stage that is still in its initial composition pass.
// Extra options are applied after the test defaults.
func NewScene(t *testing.T, opts ...stage.Option) *Scene {
	t.Helper()
	return newScene(t, scheduler.NewLoop(), clock.NewMock(), opts)
}

// NewSceneWithStrategy creates a scene whose managers commit with the given
// strategy, driven by the scene's loop and mock clock
func NewSceneWithStrategy(t *testing.T, kind scheduler.Kind, debounce time.Duration, opts ...stage.Option) *Scene {
	t.Helper()
	loop := scheduler.NewLoop()
	clk := clock.NewMock()
	factory, err := scheduler.NewFactory(kind, loop, clk, debounce)
	if err != nil {
		t.Fatalf("Failed to build strategy: %v", err)
	}
	return newScene(t, loop, clk, append([]stage.Option{stage.WithStrategy(factory)}, opts...))
}

func newScene(t *testing.T, loop *scheduler.Loop, clk *clock.Mock, opts []stage.Option) *Scene {
	t.Helper()
	logger := &Logger{}
	rec := metrics.NewRecorder("test")
	base := []stage.Option{
		stage.WithLoop(loop),
		stage.WithLogger(logger),
		stage.WithMetrics(rec),
		stage.WithID("test"),
	}
	s := stage.New(append(base, opts...)...)

	return &Scene{
		T:       t,
		Stage:   s,
		Loop:    loop,
		Clock:   clk,
		Logger:  logger,
		Metrics: rec,
		Ctx:     stage.WithStage(context.Background(), s),
	}
}

// NewOpenScene creates a stage whose initial composition pass is already over
func NewOpenScene(t *testing.T, opts ...stage.Option) *Scene {
	t.Helper()
	s := NewScene(t, opts...)
	s.Stage.Open()
	return s
}

// Container declares and mounts a container recording its renders
func (s *Scene) Container(id string) (*stage.Container, *Renders) {
	s.T.Helper()
	renders := &Renders{}
	c := s.Stage.NewContainer("Layer", id, stage.RenderInto(renders))
	c.Mount()
	return c, renders
}

// Tick runs one loop tick
func (s *Scene) Tick() *Scene {
	s.Loop.Tick()
	return s
}

// Settle runs loop ticks until nothing is pending
func (s *Scene) Settle() *Scene {
	s.Loop.Drain()
	return s
}
