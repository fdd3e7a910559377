package stage

import (
	"github.com/google/uuid"

	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/manager"
	"stageport.dev/stageport/internal/metrics"
	"stageport.dev/stageport/internal/output"
	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/scheduler"
)

// DefaultContainerID is the id of the layer every stage provides for portals
// that do not name a destination
const DefaultContainerID = "stageport-portals"

// Logger is the logging surface the stage needs. *output.Splog satisfies it.
type Logger interface {
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Dispatcher is the capability portals use to relocate content
type Dispatcher interface {
	Mount(id string, p scene.Priority, payload any) scene.Key
	Update(id string, key scene.Key, p scene.Priority, payload any)
	Unmount(id string, key scene.Key)
	Defer(fn func())
}

// Registrar is the capability containers use to expose their manager
type Registrar interface {
	AddManager(auditName, id string, m ContainerManager)
	RemoveManager(auditName, id string, m ContainerManager)
	ManagerOptions() []manager.Option
	Logger() Logger
}

// Host is everything a stage offers to the tree beneath it
type Host interface {
	Dispatcher
	Registrar
}

// Stage coordinates relocation between portals and containers
type Stage struct {
	id        string
	seq       scene.Sequence
	registry  *Registry
	queue     *PendingQueue
	loop      *scheduler.Loop
	strategy  scheduler.Factory
	zero      float64
	defaultID string
	composing bool
	log       Logger
	metrics   *metrics.Recorder

	defaultRenderer manager.Renderer
	defaultLayer    *Container
}

// Option configures a Stage
type Option func(*Stage)

// WithLoop sets the loop deferred work runs on
func WithLoop(loop *scheduler.Loop) Option {
	return func(s *Stage) { s.loop = loop }
}

// WithStrategy sets the commit strategy factory used for every manager
func WithStrategy(f scheduler.Factory) Option {
	return func(s *Stage) { s.strategy = f }
}

// WithLogger sets the logger
func WithLogger(l Logger) Option {
	return func(s *Stage) { s.log = l }
}

// WithMetrics sets the metrics recorder
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Stage) { s.metrics = r }
}

// WithZeroPriority sets the priority used for content without one
func WithZeroPriority(zero float64) Option {
	return func(s *Stage) { s.zero = zero }
}

// WithDefaultContainer sets the id of the stage's own portal layer
func WithDefaultContainer(id string) Option {
	return func(s *Stage) {
		if id != "" {
			s.defaultID = id
		}
	}
}

// WithDefaultRenderer sets the renderer of the stage's own portal layer
func WithDefaultRenderer(r manager.Renderer) Option {
	return func(s *Stage) { s.defaultRenderer = r }
}

// WithImmediateStart skips the buffered initial composition pass
func WithImmediateStart() Option {
	return func(s *Stage) { s.composing = false }
}

// WithID overrides the generated stage id
func WithID(id string) Option {
	return func(s *Stage) { s.id = id }
}

// New creates a stage. The stage starts inside its initial composition pass;
// call Compose or Open to leave it.
func New(opts ...Option) *Stage {
	s := &Stage{
		id:        uuid.NewString(),
		registry:  NewRegistry(),
		queue:     NewPendingQueue(),
		defaultID: DefaultContainerID,
		composing: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loop == nil {
		s.loop = scheduler.NewLoop()
	}
	if s.strategy == nil {
		s.strategy = func() scheduler.Strategy { return scheduler.Immediate() }
	}
	if s.log == nil {
		s.log = output.NewSplog()
	}

	s.defaultLayer = s.NewContainer("Layer", s.defaultID, RenderInto(s.defaultRenderer))
	s.defaultLayer.Mount()
	return s
}

// ID returns the stage instance id
func (s *Stage) ID() string {
	return s.id
}

// Loop returns the loop the stage defers work onto
func (s *Stage) Loop() *scheduler.Loop {
	return s.loop
}

// Metrics returns the metrics recorder, which may be nil
func (s *Stage) Metrics() *metrics.Recorder {
	return s.metrics
}

// DefaultContainer returns the stage's own portal layer
func (s *Stage) DefaultContainer() *Container {
	return s.defaultLayer
}

// DefaultID returns the id portals without a destination are sent to
func (s *Stage) DefaultID() string {
	return s.defaultID
}

// Logger returns the stage logger
func (s *Stage) Logger() Logger {
	return s.log
}

// Composing reports whether the initial composition pass is still running
func (s *Stage) Composing() bool {
	return s.composing
}

// Defer schedules fn for the next loop tick
func (s *Stage) Defer(fn func()) {
	s.loop.Defer(fn)
}

// ManagerOptions returns the options every container manager of this stage uses
func (s *Stage) ManagerOptions() []manager.Option {
	return []manager.Option{
		manager.WithStrategy(s.strategy()),
		manager.WithZero(s.zero),
		manager.WithObserver(s.metrics),
	}
}

// Mount attaches content to container id and returns its new key. The key is
// returned even when the command has to wait for the container.
func (s *Stage) Mount(id string, p scene.Priority, payload any) scene.Key {
	id = s.resolve(id)
	key := s.seq.Next()
	cmd := scene.MountCmd(id, key, p, payload)
	if m, ok := s.live(id); ok {
		s.apply(m, cmd)
		return key
	}
	s.enqueue(cmd)
	return key
}

// Update replaces the content stored under key
func (s *Stage) Update(id string, key scene.Key, p scene.Priority, payload any) {
	id = s.resolve(id)
	cmd := scene.UpdateCmd(id, key, p, payload)
	if m, ok := s.live(id); ok {
		s.apply(m, cmd)
		return
	}
	s.queue.Coalesce(cmd)
	s.metrics.Queued(cmd.Kind.String())
	s.log.Debug("[stage %s] queued %s", s.id, cmd)
}

// Unmount detaches the content stored under key. A queued unmount is never
// coalesced away, so a mount and unmount issued before the container exists
// replay as "never mounted".
func (s *Stage) Unmount(id string, key scene.Key) {
	id = s.resolve(id)
	cmd := scene.UnmountCmd(id, key)
	if m, ok := s.live(id); ok {
		s.apply(m, cmd)
		return
	}
	s.enqueue(cmd)
}

// AddManager registers m as the manager of container id and replays anything
// queued for it. A second registration under a live id wins, with a warning.
func (s *Stage) AddManager(auditName, id string, m ContainerManager) {
	if _, replaced := s.registry.Set(id, m); replaced {
		s.log.Warn("%v", sperrors.NewDuplicateContainerError(id, auditName))
		s.metrics.Duplicate()
	}
	s.log.Debug("[stage %s] registered %s %q", s.id, auditName, id)
	if !s.composing {
		s.flush(id, m)
	}
}

// RemoveManager unregisters m. A manager that was replaced by a later
// registration leaves the replacement in place.
func (s *Stage) RemoveManager(auditName, id string, m ContainerManager) {
	if s.registry.Delete(id, m) {
		s.log.Debug("[stage %s] unregistered %s %q", s.id, auditName, id)
	}
}

// Compose runs the initial composition pass: build declares the tree, every
// deferred task is run, and then all buffered commands are applied together.
func (s *Stage) Compose(build func()) {
	if build != nil {
		build()
	}
	s.loop.Drain()
	s.Open()
}

// Open ends the initial composition pass and flushes every queue whose
// manager is registered. It is a no-op once the stage is open.
func (s *Stage) Open() {
	if !s.composing {
		return
	}
	s.composing = false
	for _, id := range s.queue.IDs() {
		if m, ok := s.registry.Get(id); ok {
			s.flush(id, m)
		}
	}
}

// Registered reports whether a manager is registered under id
func (s *Stage) Registered(id string) bool {
	_, ok := s.registry.Get(id)
	return ok
}

// RegisteredIDs returns the ids of every registered container
func (s *Stage) RegisteredIDs() []string {
	return s.registry.IDs()
}

// Pending returns a copy of the commands waiting for container id
func (s *Stage) Pending(id string) []scene.Command {
	return s.queue.Peek(s.resolve(id))
}

// PendingIDs returns the ids that have commands waiting
func (s *Stage) PendingIDs() []string {
	return s.queue.IDs()
}

func (s *Stage) resolve(id string) string {
	if id == "" {
		return s.defaultID
	}
	return id
}

func (s *Stage) live(id string) (ContainerManager, bool) {
	if s.composing {
		return nil, false
	}
	return s.registry.Get(id)
}

func (s *Stage) apply(m ContainerManager, cmd scene.Command) {
	m.Apply(cmd)
	s.metrics.Applied(cmd.Kind.String())
	s.log.Debug("[stage %s] applied %s", s.id, cmd)
}

func (s *Stage) enqueue(cmd scene.Command) {
	s.queue.Append(cmd)
	s.metrics.Queued(cmd.Kind.String())
	s.log.Debug("[stage %s] queued %s", s.id, cmd)
}

func (s *Stage) flush(id string, m ContainerManager) {
	cmds := s.queue.Take(id)
	if len(cmds) == 0 {
		return
	}
	m.Apply(cmds...)
	s.metrics.Flushed(len(cmds))
	s.log.Debug("[stage %s] flushed %d commands into %q", s.id, len(cmds), id)
}

var _ Host = (*Stage)(nil)
