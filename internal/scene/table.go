package scene

import "slices"

// Table is the ordered content of one container.
// The ordered slice and the key index always hold the same entries.
type Table struct {
	zero    float64
	entries []*Entry
	index   map[Key]*Entry
}

// NewTable creates an empty table. zero is the priority used for entries
// without an explicit one.
func NewTable(zero float64) *Table {
	return &Table{
		zero:  zero,
		index: make(map[Key]*Entry),
	}
}

// Insert appends e and re-sorts. Inserting a key that is already present
// replaces it instead, so keys stay unique.
func (t *Table) Insert(e Entry) {
	if _, ok := t.index[e.Key]; ok {
		t.Replace(e.Key, e)
		return
	}
	stored := e
	t.entries = append(t.entries, &stored)
	t.index[e.Key] = &stored
	t.sort()
}

// Replace swaps the entry stored under key. It returns false when the key is
// absent. The table is only re-sorted if the effective priority changed.
func (t *Table) Replace(key Key, e Entry) bool {
	current, ok := t.index[key]
	if !ok {
		return false
	}
	moved := current.Priority.Value(t.zero) != e.Priority.Value(t.zero)
	current.Priority = e.Priority
	current.Payload = e.Payload
	if moved {
		t.sort()
	}
	return true
}

// Remove deletes the entry stored under key. Removing an absent key is a no-op
// and returns false.
func (t *Table) Remove(key Key) bool {
	current, ok := t.index[key]
	if !ok {
		return false
	}
	delete(t.index, key)
	t.entries = slices.DeleteFunc(t.entries, func(e *Entry) bool { return e == current })
	return true
}

// Get returns a copy of the entry stored under key
func (t *Table) Get(key Key) (Entry, bool) {
	e, ok := t.index[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Has reports whether key is in the table
func (t *Table) Has(key Key) bool {
	_, ok := t.index[key]
	return ok
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in draw order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Keys returns the keys in draw order
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Key
	}
	return out
}

// Payloads returns the payloads in draw order
func (t *Table) Payloads() []any {
	out := make([]any, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Payload
	}
	return out
}

func (t *Table) sort() {
	slices.SortStableFunc(t.entries, func(a, b *Entry) int {
		return ComparePriority(*a, *b, t.zero)
	})
}
