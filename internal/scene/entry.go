package scene

import (
	"cmp"
	"strconv"
)

// Key identifies one piece of relocated content within a stage
type Key int64

func (k Key) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// Priority is an optional draw-order hint. The zero value is unset.
type Priority struct {
	value float64
	set   bool
}

// NoPriority is the unset priority
var NoPriority = Priority{}

// P returns a priority holding v
func P(v float64) Priority {
	return Priority{value: v, set: true}
}

// IsSet reports whether the priority carries an explicit value
func (p Priority) IsSet() bool {
	return p.set
}

// Value returns the priority, or zero when unset
func (p Priority) Value(zero float64) float64 {
	if !p.set {
		return zero
	}
	return p.value
}

func (p Priority) String() string {
	if !p.set {
		return "unset"
	}
	return strconv.FormatFloat(p.value, 'g', -1, 64)
}

// Entry is one piece of content attached to a container
type Entry struct {
	Key      Key
	Priority Priority
	Payload  any
}

// ComparePriority orders two entries by effective priority.
// cmp.Compare treats NaN as equal to itself and lower than any number,
// which keeps the ordering strict weak even for NaN priorities.
func ComparePriority(a, b Entry, zero float64) int {
	return cmp.Compare(a.Priority.Value(zero), b.Priority.Value(zero))
}

// Sequence issues monotonically increasing keys. It is never reset, so a key
// is never reused after the content it named is unmounted.
type Sequence struct {
	last Key
}

// Next returns a fresh key
func (s *Sequence) Next() Key {
	s.last++
	return s.last
}

// Last returns the most recently issued key, or 0 if none was issued
func (s *Sequence) Last() Key {
	return s.last
}
