package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/logging"
	"github.com/warp/staffing-engine/resolver"
)

// Run is the explicit scope of one import: the transaction, the resolver
// maps, the writer and the warnings. It is handed to exactly one importer
// and discarded when the transaction ends.
type Run struct {
	ID     string
	Family string
	Role   string

	// Started is the run's clock reading. Importers use it instead of
	// calling time.Now so a run sees one instant.
	Started time.Time

	Tx       *sql.Tx
	Maps     *resolver.Set
	Writer   *bulk.Writer
	Warnings *Warnings
	Log      *logging.Logger

	passwordHash func() (string, error)
	rows         map[string]int
}

// NewRun wires a scope around tx. Useful on its own in importer tests.
func NewRun(tx *sql.Tx, d bulk.Dialect, opts Options) *Run {
	opts = opts.withDefaults()
	return newRun(tx, d, opts, opts.NewID(), opts.Now())
}

func newRun(tx *sql.Tx, d bulk.Dialect, opts Options, id string, started time.Time) *Run {
	r := &Run{
		ID:       id,
		Started:  started,
		Tx:       tx,
		Maps:     resolver.NewSet(tx, opts.NewID),
		Writer:   &bulk.Writer{Dialect: d, MaxParams: opts.MaxParams},
		Warnings: &Warnings{},
		Log:      opts.Log,
		rows:     make(map[string]int),
	}
	r.passwordHash = opts.passwordHasher()
	r.Writer.OnWrite = func(table string, n int, _ time.Duration) {
		r.rows[table] += n
		opts.Metrics.rowsWritten(table, n)
	}
	return r
}

// Map returns the resolver map of f, loading it on first use.
func (r *Run) Map(ctx context.Context, f resolver.Family) (*resolver.Map, error) {
	return r.Maps.Get(ctx, f)
}

// Write sends rows to t on the run's transaction.
func (r *Run) Write(ctx context.Context, t bulk.Target, rows [][]any) (int, error) {
	return r.Writer.Write(ctx, r.Tx, t, rows)
}

// Flush writes every batch in order, stopping at the first error.
func (r *Run) Flush(ctx context.Context, batches ...*bulk.Batch) error {
	for _, b := range batches {
		if _, err := r.Writer.Flush(ctx, r.Tx, b); err != nil {
			return err
		}
	}
	return nil
}

// Exec runs a hand-written statement written with ? placeholders.
func (r *Run) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.Tx.ExecContext(ctx, r.Writer.Dialect.Rebind(query), args...)
}

// Query runs a hand-written lookup written with ? placeholders.
func (r *Run) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.Tx.QueryContext(ctx, r.Writer.Dialect.Rebind(query), args...)
}

// NewID mints an identifier for a row without a natural key.
func (r *Run) NewID() string { return r.Maps.NewID() }

// Warnf records a non-fatal row defect.
func (r *Run) Warnf(format string, args ...any) {
	r.Warnings.Addf(format, args...)
}

// DefaultPasswordHash is the hash given to app users created by the run.
// It is computed once per orchestrator.
func (r *Run) DefaultPasswordHash() (string, error) {
	return r.passwordHash()
}

// RowsWritten is the number of rows submitted per table so far.
func (r *Run) RowsWritten() map[string]int {
	out := make(map[string]int, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out
}
