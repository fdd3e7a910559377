// Package manager implements the runtime owner of one container's content.
//
// A Manager applies relocation commands to its content table synchronously
// and asks its commit strategy to refresh the visible output once per batch.
package manager

import (
	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/scheduler"
)

// Renderer draws the ordered content of a container
type Renderer interface {
	Render(containerID string, entries []scene.Entry)
}

// RenderFunc adapts a function to the Renderer interface
type RenderFunc func(containerID string, entries []scene.Entry)

// Render calls f
func (f RenderFunc) Render(containerID string, entries []scene.Entry) {
	f(containerID, entries)
}

// Observer is notified of stale commands and committed renders
type Observer interface {
	Stale(kind string)
	Rendered(container string)
}

// Manager owns the content table of one container
type Manager struct {
	id       string
	table    *scene.Table
	strategy scheduler.Strategy
	renderer Renderer
	observer Observer
	closed   bool
}

// Option configures a Manager
type Option func(*Manager)

// WithStrategy sets the commit strategy. The default commits immediately.
func WithStrategy(s scheduler.Strategy) Option {
	return func(m *Manager) { m.strategy = s }
}

// WithRenderer sets the renderer notified on every commit
func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

// WithObserver sets the observer for stale commands and renders
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithZero sets the priority used for entries without one
func WithZero(zero float64) Option {
	return func(m *Manager) { m.table = scene.NewTable(zero) }
}

// New creates a manager for the container id
func New(id string, opts ...Option) *Manager {
	m := &Manager{
		id:       id,
		table:    scene.NewTable(0),
		strategy: scheduler.Immediate(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the container id
func (m *Manager) ID() string {
	return m.id
}

// Apply runs the commands in order against the table, then requests a single
// commit. Updates and unmounts for absent keys are ignored.
func (m *Manager) Apply(cmds ...scene.Command) {
	if len(cmds) == 0 {
		return
	}
	for _, cmd := range cmds {
		if !cmd.ApplyTo(m.table) && m.observer != nil {
			m.observer.Stale(cmd.Kind.String())
		}
	}
	if m.closed {
		return
	}
	m.strategy.Request(m.commit)
}

// Entries returns the content in draw order
func (m *Manager) Entries() []scene.Entry {
	return m.table.Entries()
}

// Keys returns the content keys in draw order
func (m *Manager) Keys() []scene.Key {
	return m.table.Keys()
}

// Payloads returns the content payloads in draw order
func (m *Manager) Payloads() []any {
	return m.table.Payloads()
}

// Len returns the number of entries
func (m *Manager) Len() int {
	return m.table.Len()
}

// Close stops all future renders. The table keeps working so late commands
// stay harmless.
func (m *Manager) Close() {
	m.closed = true
	m.strategy.Cancel()
}

// Closed reports whether Close was called
func (m *Manager) Closed() bool {
	return m.closed
}

func (m *Manager) commit() {
	if m.closed {
		return
	}
	if m.renderer != nil {
		m.renderer.Render(m.id, m.table.Entries())
	}
	if m.observer != nil {
		m.observer.Rendered(m.id)
	}
}
