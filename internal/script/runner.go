package script

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/benbjohnson/clock"

	"stageport.dev/stageport/internal/canvas"
	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/portal"
	"stageport.dev/stageport/internal/runtime"
	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/stage"
)

// timerGrace bounds how long an advance step waits for fired timers to hand
// their work back to the loop
const timerGrace = 50 * time.Millisecond

// TraceFunc receives the tree snapshot after every step
type TraceFunc func(step int, desc string, snapshot string)

// Options configures a run
type Options struct {
	// Strategy overrides the script's commit strategy when set
	Strategy string
	Trace    TraceFunc
}

// Runner replays scripts against fresh stages
type Runner struct {
	rt *runtime.Context
}

// NewRunner creates a runner whose stages are configured from rt
func NewRunner(rt *runtime.Context) *Runner {
	return &Runner{rt: rt}
}

// Run executes s on a fresh stage. Failed expectations are collected in the
// report; malformed steps stop the run with a ScriptError.
func (r *Runner) Run(s *Script, opts Options) (*Report, error) {
	rt := *r.rt
	if s.Strategy != "" {
		rt.Config.Manager.CommitStrategy = s.Strategy
	}
	if opts.Strategy != "" {
		rt.Config.Manager.CommitStrategy = opts.Strategy
	}
	mock := clock.NewMock()
	rt.Clock = mock

	if rt.Config.Stage.DefaultContainer == "" {
		rt.Config.Stage.DefaultContainer = stage.DefaultContainerID
	}
	defaultID := rt.Config.Stage.DefaultContainer

	p := newPlayer(defaultID, mock, s.Path)
	st, err := rt.NewStage(stage.WithDefaultRenderer(p.nodes[defaultID]))
	if err != nil {
		return nil, sperrors.NewScriptError(s.Path, 0, "failed to create stage", err)
	}
	p.bind(st)
	report := &Report{Name: s.Name, Strategy: rt.Config.Manager.CommitStrategy}

	step := 0
	var runErr error
	run := func(steps []Step) {
		for _, stp := range steps {
			if runErr != nil {
				return
			}
			step++
			failure, err := p.apply(step, stp)
			if err != nil {
				runErr = err
				return
			}
			if failure != nil {
				report.Failures = append(report.Failures, failure)
			}
			report.Steps++
			if opts.Trace != nil {
				opts.Trace(step, stp.String(), canvas.Snapshot(p.root))
			}
		}
	}

	st.Compose(func() { run(s.Initial) })
	if runErr != nil {
		return nil, runErr
	}
	run(s.Steps)
	if runErr != nil {
		return nil, runErr
	}

	report.Snapshot = canvas.Snapshot(p.root)
	report.Missing = p.missing()
	report.Metrics, err = st.Metrics().Snapshot()
	if err != nil {
		return nil, err
	}
	return report, nil
}

type portalState struct {
	portal *portal.Portal
	props  portal.Props
}

// player holds the tree a script builds
type player struct {
	stage      *stage.Stage
	ctx        context.Context
	clock      *clock.Mock
	path       string
	root       *canvas.Node
	nodes      map[string]*canvas.Node
	containers map[string]*stage.Container
	portals    map[string]*portalState
	seen       []string
}

func newPlayer(defaultID string, clk *clock.Mock, path string) *player {
	root := canvas.NewStage("stage")
	def := canvas.NewLayer(defaultID).ServeAs(defaultID)
	root.Add(def)
	return &player{
		clock:      clk,
		path:       path,
		root:       root,
		nodes:      map[string]*canvas.Node{root.Name(): root, def.Name(): def},
		containers: map[string]*stage.Container{},
		portals:    map[string]*portalState{},
		seen:       []string{defaultID},
	}
}

// bind attaches the player to the stage its default layer renders for
func (p *player) bind(st *stage.Stage) {
	p.stage = st
	p.ctx = stage.WithStage(context.Background(), st)
	p.containers[st.DefaultID()] = st.DefaultContainer()
}

func (p *player) fail(step int, format string, args ...interface{}) error {
	return sperrors.NewScriptError(p.path, step, fmt.Sprintf(format, args...), nil)
}

func (p *player) apply(step int, s Step) (*sperrors.ExpectationError, error) {
	switch s.Action() {
	case "container":
		return nil, p.container(step, s.Container)
	case "teardown":
		return nil, p.teardown(step, s.Teardown)
	case "portal":
		return nil, p.open(step, s.Portal)
	case "set":
		return nil, p.set(step, s.Set)
	case "dispose":
		ps, ok := p.portals[s.Dispose]
		if !ok {
			return nil, p.fail(step, "unknown portal %q", s.Dispose)
		}
		ps.portal.Dispose()
		return nil, nil
	case "tick":
		if *s.Tick <= 0 {
			p.stage.Loop().Drain()
			return nil, nil
		}
		for i := 0; i < *s.Tick; i++ {
			p.stage.Loop().Tick()
		}
		return nil, nil
	case "advance":
		d, err := time.ParseDuration(s.Advance)
		if err != nil {
			return nil, p.fail(step, "invalid duration %q", s.Advance)
		}
		p.advance(d)
		return nil, nil
	case "expect":
		return p.expect(step, s.Expect), nil
	}
	return nil, p.fail(step, "invalid step")
}

func (p *player) container(step int, cs *ContainerStep) error {
	if _, ok := p.containers[cs.ID]; ok {
		return p.fail(step, "container %q already exists", cs.ID)
	}
	kind, err := canvas.ParseKind(cs.Kind)
	if err != nil {
		return p.fail(step, "%v", err)
	}
	parentName := cs.Parent
	if parentName == "" {
		parentName = p.root.Name()
	}
	parent, ok := p.nodes[parentName]
	if !ok {
		return p.fail(step, "unknown parent %q", parentName)
	}

	node := canvas.NewNode(kind, cs.ID).ServeAs(cs.ID)
	parent.Add(node)
	c, err := stage.DeclareContainer(p.ctx, kind.AuditName(), cs.ID, stage.RenderInto(node))
	if err != nil {
		return err
	}
	c.Mount()

	p.nodes[cs.ID] = node
	p.containers[cs.ID] = c
	p.seen = append(p.seen, cs.ID)
	return nil
}

func (p *player) teardown(step int, id string) error {
	c, ok := p.containers[id]
	if !ok {
		return p.fail(step, "unknown container %q", id)
	}
	c.Unmount()
	node := p.nodes[id]
	node.ClearRelocated()
	if parent := node.Parent(); parent != nil {
		parent.Remove(node)
	}
	delete(p.containers, id)
	delete(p.nodes, id)
	return nil
}

func (p *player) open(step int, ps *PortalStep) error {
	if _, ok := p.portals[ps.Name]; ok {
		return p.fail(step, "portal %q already exists", ps.Name)
	}
	props := portal.Props{Priority: scene.NoPriority}
	props = merge(props, ps)
	pt, err := portal.Open(p.ctx, props)
	if err != nil {
		return err
	}
	p.portals[ps.Name] = &portalState{portal: pt, props: props}
	return nil
}

func (p *player) set(step int, ps *PortalStep) error {
	state, ok := p.portals[ps.Name]
	if !ok {
		return p.fail(step, "unknown portal %q", ps.Name)
	}
	state.props = merge(state.props, ps)
	state.portal.Commit(state.props)
	return nil
}

// merge applies the fields ps sets. A text change builds a new shape so the
// portal sees a changed payload.
func merge(props portal.Props, ps *PortalStep) portal.Props {
	if ps.Target != nil {
		props.ContainerID = *ps.Target
	}
	if ps.Priority != nil {
		props.Priority = scene.P(*ps.Priority)
	}
	prev, _ := props.Payload.(*canvas.Node)
	if prev == nil || ps.Text != nil {
		text := ""
		if ps.Text != nil {
			text = *ps.Text
		} else if prev != nil {
			text = prev.Text()
		}
		props.Payload = canvas.NewShape(ps.Name, text)
	}
	return props
}

func (p *player) advance(d time.Duration) {
	p.clock.Add(d)
	loop := p.stage.Loop()
	giveUp := time.After(timerGrace)
	for loop.Due(p.clock.Now()) > 0 {
		select {
		case <-loop.Wake():
		case <-giveUp:
			return
		}
	}
}

func (p *player) expect(step int, es *ExpectStep) *sperrors.ExpectationError {
	id := es.Container
	got := []string{}
	if c, ok := p.containers[id]; ok {
		for _, e := range c.Entries() {
			got = append(got, canvas.AsNode(e).Name())
		}
	}
	want := es.Order
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &sperrors.ExpectationError{Step: step, Container: id, Want: want, Got: got}
}

// missing returns destinations that still hold queued commands
func (p *player) missing() []Missing {
	var out []Missing
	for _, id := range p.stage.PendingIDs() {
		out = append(out, Missing{
			ID:         id,
			Commands:   len(p.stage.Pending(id)),
			Suggestion: suggest(id, p.seen),
		})
	}
	return out
}
