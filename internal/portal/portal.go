// Package portal implements the producer side of relocation: content declared
// in one place and drawn inside a named container elsewhere.
//
// A Portal goes through WillMount, DidMount and WillUnmount. Its first mount
// is deferred by one loop tick so that sibling containers declared in the same
// pass exist before the first command is sent. Changing the destination
// retires the current key and starts a new mount cycle with a fresh key, so
// the content is never attached to two containers at once.
package portal

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/stage"
)

// Phase is the lifecycle state of a portal
type Phase int

const (
	// PhaseNone is the state before the portal first appears
	PhaseNone Phase = iota
	// PhaseWillMount means the mount request is scheduled but not sent
	PhaseWillMount
	// PhaseDidMount means the content is attached and changes are sent as updates
	PhaseDidMount
	// PhaseWillUnmount is terminal: the content was or will be unmounted
	PhaseWillUnmount
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseWillMount:
		return "will-mount"
	case PhaseDidMount:
		return "did-mount"
	case PhaseWillUnmount:
		return "will-unmount"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Props describe what a portal relocates and where
type Props struct {
	// ContainerID is the destination. Empty means the stage's default layer.
	ContainerID string
	Priority    scene.Priority
	Payload     any
}

// cycle is one mount of the portal into one destination
type cycle struct {
	containerID string
	phase       Phase
	key         scene.Key
}

// Portal relocates its payload into a named container
type Portal struct {
	host     stage.Dispatcher
	props    Props
	cur      *cycle
	retired  []scene.Key
	disposed bool
}

// Open declares a portal under the stage bound to ctx and schedules its mount.
// Without a stage it fails with a configuration error naming the wrapper.
func Open(ctx context.Context, props Props) (*Portal, error) {
	host, err := stage.FromContext(ctx, "Portal")
	if err != nil {
		return nil, err
	}
	p := &Portal{host: host, props: props}
	p.begin()
	return p, nil
}

// MustOpen is like Open but panics on a configuration error
func MustOpen(ctx context.Context, props Props) *Portal {
	p, err := Open(ctx, props)
	if err != nil {
		panic(err)
	}
	return p
}

// Commit applies new props after a composition pass. A changed destination
// re-parents the content under a new key; any other change is sent as an
// update once the portal is mounted.
func (p *Portal) Commit(props Props) {
	if p.disposed {
		return
	}
	prev := p.props
	p.props = props

	if props.ContainerID != p.cur.containerID {
		p.end(p.cur)
		p.begin()
		return
	}
	if p.cur.phase != PhaseDidMount {
		// the deferred mount reads the latest props
		return
	}
	if prev.Priority != props.Priority || !samePayload(prev.Payload, props.Payload) {
		p.host.Update(p.cur.containerID, p.cur.key, props.Priority, props.Payload)
	}
}

// Dispose unmounts the content exactly once
func (p *Portal) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.end(p.cur)
}

// Phase returns the lifecycle state of the current mount cycle
func (p *Portal) Phase() Phase {
	if p.cur == nil {
		return PhaseNone
	}
	return p.cur.phase
}

// Key returns the key of the current mount, or 0 before the mount ran
func (p *Portal) Key() scene.Key {
	if p.cur == nil {
		return 0
	}
	return p.cur.key
}

// ContainerID returns the destination of the current mount cycle
func (p *Portal) ContainerID() string {
	if p.cur == nil {
		return p.props.ContainerID
	}
	return p.cur.containerID
}

// Props returns the latest committed props
func (p *Portal) Props() Props {
	return p.props
}

// Retired returns every key this portal has unmounted, oldest first
func (p *Portal) Retired() []scene.Key {
	return slices.Clone(p.retired)
}

func (p *Portal) begin() {
	c := &cycle{containerID: p.props.ContainerID, phase: PhaseWillMount}
	p.cur = c
	p.host.Defer(func() { p.mount(c) })
}

func (p *Portal) mount(c *cycle) {
	c.key = p.host.Mount(c.containerID, p.props.Priority, p.props.Payload)
	if c.phase == PhaseWillUnmount {
		// ended while the mount was in flight
		p.host.Unmount(c.containerID, c.key)
		p.retired = append(p.retired, c.key)
		return
	}
	c.phase = PhaseDidMount
}

func (p *Portal) end(c *cycle) {
	switch c.phase {
	case PhaseDidMount:
		c.phase = PhaseWillUnmount
		p.host.Unmount(c.containerID, c.key)
		p.retired = append(p.retired, c.key)
	case PhaseWillMount:
		c.phase = PhaseWillUnmount
	}
}

func samePayload(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	// interface fields may hold slices, maps or funcs; those always count
	// as changed
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
