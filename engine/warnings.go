package engine

import "fmt"

// Warnings collects non-fatal row defects in the order they were found.
// A warning never aborts a run; it tells the caller which record was
// skipped or altered and why.
type Warnings struct {
	items []string
}

// Addf appends a formatted warning.
func (w *Warnings) Addf(format string, args ...any) {
	w.items = append(w.items, fmt.Sprintf(format, args...))
}

// Len is the number of warnings collected so far.
func (w *Warnings) Len() int { return len(w.items) }

// List returns a copy of the warnings. Never nil.
func (w *Warnings) List() []string {
	out := make([]string, len(w.items))
	copy(out, w.items)
	return out
}
