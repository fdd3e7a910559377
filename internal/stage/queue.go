package stage

import (
	"slices"

	"stageport.dev/stageport/internal/scene"
)

// PendingQueue buffers commands for containers whose manager is not available
type PendingQueue struct {
	order []string
	cmds  map[string][]scene.Command
}

// NewPendingQueue creates an empty queue
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{cmds: make(map[string][]scene.Command)}
}

// Append adds cmd to the end of its container's queue
func (q *PendingQueue) Append(cmd scene.Command) {
	id := cmd.ContainerID
	if _, ok := q.cmds[id]; !ok {
		q.order = append(q.order, id)
	}
	q.cmds[id] = append(q.cmds[id], cmd)
}

// Coalesce queues the latest content for a key. A queued mount or update for
// the same key is replaced in place, keeping its position; otherwise the
// content is appended. Either way it is stored as a mount, since the manager
// that eventually receives it has never seen the key. Queued unmounts are
// never touched.
func (q *PendingQueue) Coalesce(cmd scene.Command) {
	cmd.Kind = scene.KindMount
	queued := q.cmds[cmd.ContainerID]
	if i := slices.IndexFunc(queued, scene.NotUnmountByKey(cmd.Key)); i >= 0 {
		queued[i] = cmd
		return
	}
	q.Append(cmd)
}

// Take removes and returns every command queued for id
func (q *PendingQueue) Take(id string) []scene.Command {
	cmds, ok := q.cmds[id]
	if !ok {
		return nil
	}
	delete(q.cmds, id)
	q.order = slices.DeleteFunc(q.order, func(s string) bool { return s == id })
	return cmds
}

// Peek returns a copy of the commands queued for id
func (q *PendingQueue) Peek(id string) []scene.Command {
	return slices.Clone(q.cmds[id])
}

// Len returns the number of commands queued for id
func (q *PendingQueue) Len(id string) int {
	return len(q.cmds[id])
}

// IDs returns the ids with queued commands, in the order they were first queued
func (q *PendingQueue) IDs() []string {
	return slices.Clone(q.order)
}
