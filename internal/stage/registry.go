package stage

import (
	"slices"

	"stageport.dev/stageport/internal/scene"
)

// ContainerManager is what a container registers with a stage
type ContainerManager interface {
	Apply(cmds ...scene.Command)
}

// Registry maps container ids to their live manager
type Registry struct {
	managers map[string]ContainerManager
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]ContainerManager)}
}

// Get returns the manager registered under id
func (r *Registry) Get(id string) (ContainerManager, bool) {
	m, ok := r.managers[id]
	return m, ok
}

// Set registers m under id and returns the manager it replaced, if any.
// Registering the same manager twice is not a replacement.
func (r *Registry) Set(id string, m ContainerManager) (ContainerManager, bool) {
	prev, ok := r.managers[id]
	r.managers[id] = m
	if !ok || prev == m {
		return nil, false
	}
	return prev, true
}

// Delete removes the registration under id if it still belongs to m
func (r *Registry) Delete(id string, m ContainerManager) bool {
	current, ok := r.managers[id]
	if !ok || current != m {
		return false
	}
	delete(r.managers, id)
	return true
}

// IDs returns the registered ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.managers))
	for id := range r.managers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
