package diffengine

import (
	"fmt"
	"time"
)

// Diff is an ordered list of Modifications that transforms one byte
// buffer into another.
type Diff struct {
	Modifications []Modification
}

// New computes an edit script turning before into after. The search is
// bounded by deadline: if deadline is reached before an optimal
// alignment is found, New falls back to a single Deletion-then-Insertion
// replacing the whole buffer — correct (Apply still produces exactly
// after) but not minimal. A zero deadline means no deadline.
func New(before, after []byte, deadline time.Time) Diff {
	ops := diffBytes(before, after, deadline)
	return Diff{Modifications: opsToModifications(ops)}
}

// Apply runs every modification in order against data, returning the
// resulting buffer.
func (d Diff) Apply(data []byte) []byte {
	out := data
	for _, m := range d.Modifications {
		out = m.Apply(out)
	}
	return out
}

// IsEmpty reports whether every modification in the diff has zero
// length (i.e. applying it is a no-op).
func (d Diff) IsEmpty() bool {
	for _, m := range d.Modifications {
		if !m.Content.IsEmpty() {
			return false
		}
	}
	return true
}

// HasMetadata reports whether any modification carries token metadata.
func (d Diff) HasMetadata() bool {
	for _, m := range d.Modifications {
		if m.Content.HasMetadata() {
			return true
		}
	}
	return false
}

// ModificationCount summarizes a Diff for display purposes — a
// supplemented feature ported from the original's Diff::count /
// ModificationCount.
type ModificationCount struct {
	Total      int
	Insertions int
	Deletions  int
}

// Count tallies non-empty insertions and deletions in the diff.
func (d Diff) Count() ModificationCount {
	var c ModificationCount
	for _, m := range d.Modifications {
		if m.Content.IsEmpty() {
			continue
		}
		switch m.Content.Kind {
		case OpInsertion, OpTokenInsertion:
			c.Insertions++
		case OpDeletion:
			c.Deletions++
		}
		c.Total++
	}
	return c
}

const noChangesMessage = "No Changes"

// String renders the count the way the original's Display impl does:
// "No Changes", "N Insertion(s)", "N Deletion(s)", or both joined.
func (c ModificationCount) String() string {
	switch {
	case c.Total == 0:
		return noChangesMessage
	case c.Deletions == 0:
		return pluralize(c.Insertions, "Insertion")
	case c.Insertions == 0:
		return pluralize(c.Deletions, "Deletion")
	default:
		return fmt.Sprintf("%s, %s", pluralize(c.Insertions, "Insertion"), pluralize(c.Deletions, "Deletion"))
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
