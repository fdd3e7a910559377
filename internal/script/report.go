package script

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	sperrors "stageport.dev/stageport/internal/errors"
)

// maxSuggestDistance bounds how different a suggested container id may be
const maxSuggestDistance = 3

// Report is the outcome of one run
type Report struct {
	Name     string
	Strategy string
	Steps    int
	Failures []*sperrors.ExpectationError
	Snapshot string
	Missing  []Missing
	Metrics  []string
}

// Missing is a destination that never received its commands
type Missing struct {
	ID         string
	Commands   int
	Suggestion string
}

// OK reports whether every expectation held
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Err returns the first failed expectation, or nil
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return r.Failures[0]
}

// Summary returns a one-line result
func (r *Report) Summary() string {
	if r.OK() {
		return fmt.Sprintf("%s: %d steps, all expectations held (%s)", r.Name, r.Steps, r.Strategy)
	}
	return fmt.Sprintf("%s: %d steps, %d failed expectations (%s)", r.Name, r.Steps, len(r.Failures), r.Strategy)
}

// Warnings describes destinations that still hold queued commands
func (r *Report) Warnings() []string {
	var out []string
	for _, m := range r.Missing {
		var b strings.Builder
		fmt.Fprintf(&b, "container %q never registered; %d commands still queued", m.ID, m.Commands)
		if m.Suggestion != "" {
			fmt.Fprintf(&b, " (did you mean %q?)", m.Suggestion)
		}
		out = append(out, b.String())
	}
	return out
}

// suggest returns the closest known id, or "" when nothing is close
func suggest(id string, known []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, k := range known {
		if k == id {
			continue
		}
		d := levenshtein.ComputeDistance(id, k)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
