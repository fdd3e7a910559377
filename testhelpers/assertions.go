// Package testhelpers provides testing utilities for stageport, including a
// stage scene builder, a recording renderer and ordering assertions.
package testhelpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/stage"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Renders records every render a manager commits
type Renders struct {
	Frames [][]string
}

// Render records the payload names of one frame
func (r *Renders) Render(_ string, entries []scene.Entry) {
	r.Frames = append(r.Frames, Names(entries))
}

// Last returns the most recent frame, or nil if nothing rendered
func (r *Renders) Last() []string {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// Names formats entry payloads for comparison
func Names(entries []scene.Entry) []string {
	names := []string{}
	for _, e := range entries {
		names = append(names, fmt.Sprint(e.Payload))
	}
	return names
}

// ExpectOrder asserts the draw order of a container's content
func ExpectOrder(t *testing.T, c *stage.Container, expected ...string) {
	t.Helper()
	if expected == nil {
		expected = []string{}
	}
	require.Equal(t, expected, Names(c.Entries()), "draw order of %q", c.ID())
}

// ExpectEmpty asserts that a container holds no content
func ExpectEmpty(t *testing.T, c *stage.Container) {
	t.Helper()
	require.Empty(t, c.Entries(), "container %q should be empty", c.ID())
}
