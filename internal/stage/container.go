package stage

import (
	"context"

	"stageport.dev/stageport/internal/manager"
	"stageport.dev/stageport/internal/scene"
)

// Container is a named node that accepts relocated content. Its manager lives
// exactly as long as the container is mounted.
type Container struct {
	host      Registrar
	auditName string
	id        string
	renderer  manager.Renderer
	mgr       *manager.Manager
	warned    bool
}

// ContainerOption configures a Container
type ContainerOption func(*Container)

// RenderInto sets the renderer that draws the container's relocated content
func RenderInto(r manager.Renderer) ContainerOption {
	return func(c *Container) { c.renderer = r }
}

// DeclareContainer declares a container under the stage bound to ctx.
// auditName describes the kind of node (for example "Layer" or "Group") in
// diagnostics.
func DeclareContainer(ctx context.Context, auditName, id string, opts ...ContainerOption) (*Container, error) {
	host, err := FromContext(ctx, auditName)
	if err != nil {
		return nil, err
	}
	return newContainer(host, auditName, id, opts...), nil
}

// NewContainer declares a container directly on s
func (s *Stage) NewContainer(auditName, id string, opts ...ContainerOption) *Container {
	return newContainer(s, auditName, id, opts...)
}

func newContainer(host Registrar, auditName, id string, opts ...ContainerOption) *Container {
	c := &Container{host: host, auditName: auditName, id: id}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the container id
func (c *Container) ID() string {
	return c.id
}

// AuditName returns the kind of node the container was declared as
func (c *Container) AuditName() string {
	return c.auditName
}

// Mount creates a fresh manager and registers it. A container without an id
// cannot receive content; it logs a warning and stays unregistered.
func (c *Container) Mount() {
	if c.id == "" {
		if !c.warned {
			c.host.Logger().Warn("%s is missing id and cannot be used as a portal container", c.auditName)
			c.warned = true
		}
		return
	}
	if c.mgr != nil {
		return
	}
	opts := append(c.host.ManagerOptions(), manager.WithRenderer(c.renderer))
	c.mgr = manager.New(c.id, opts...)
	c.host.AddManager(c.auditName, c.id, c.mgr)
}

// Unmount unregisters the manager and discards its content
func (c *Container) Unmount() {
	if c.mgr == nil {
		return
	}
	c.host.RemoveManager(c.auditName, c.id, c.mgr)
	c.mgr.Close()
	c.mgr = nil
}

// Mounted reports whether the container currently has a manager
func (c *Container) Mounted() bool {
	return c.mgr != nil
}

// Manager returns the live manager, or nil when unmounted
func (c *Container) Manager() *manager.Manager {
	return c.mgr
}

// Entries returns the container content in draw order
func (c *Container) Entries() []scene.Entry {
	if c.mgr == nil {
		return nil
	}
	return c.mgr.Entries()
}
