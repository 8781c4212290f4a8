package bulk

import "fmt"

// Batch accumulates rows for one Target keyed by their conflict identity.
// Putting a key twice replaces the earlier row in place, so a statement never
// carries the same key twice (postgres rejects that for DO UPDATE) and the
// last occurrence in the payload wins.
type Batch struct {
	Target Target

	order []string
	rows  map[string][]any
}

// NewBatch creates an empty batch for t.
func NewBatch(t Target) *Batch {
	return &Batch{Target: t, rows: make(map[string][]any)}
}

// Put queues a row under key. It reports whether an earlier row was replaced.
// Cells must line up with Target.Columns.
func (b *Batch) Put(key string, cells ...any) bool {
	if len(cells) != len(b.Target.Columns) {
		panic(fmt.Sprintf("bulk: %s row has %d cells, want %d", b.Target.Table, len(cells), len(b.Target.Columns)))
	}
	_, replaced := b.rows[key]
	if !replaced {
		b.order = append(b.order, key)
	}
	b.rows[key] = cells
	return replaced
}

// Has reports whether key is queued.
func (b *Batch) Has(key string) bool {
	_, ok := b.rows[key]
	return ok
}

// Get returns the queued row for key.
func (b *Batch) Get(key string) ([]any, bool) {
	row, ok := b.rows[key]
	return row, ok
}

func (b *Batch) Len() int { return len(b.order) }

// Rows returns queued rows in first-seen key order.
func (b *Batch) Rows() [][]any {
	out := make([][]any, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.rows[k])
	}
	return out
}
