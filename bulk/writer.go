/*
Package bulk renders in-memory rows into chunked multi-row INSERT statements.

PURPOSE:
  Importers accumulate thousands of rows per table. Sending them one by one
  costs a round-trip each; sending them all at once trips the driver's
  bound-parameter ceiling. The Writer splits rows so that
  rows_in_chunk * len(columns) never exceeds the ceiling and issues one
  statement per chunk, in order, on the caller's transaction.

CONFLICT POLICIES:
  PolicyNone:   plain INSERT. The caller guarantees the rows are new
                (first-time creates guarded by the resolver).
  PolicyIgnore: ON CONFLICT DO NOTHING. Dimension tables and append-only links.
  PolicyMerge:  ON CONFLICT (keys) DO UPDATE SET col = excluded.col.
                Mutable reference entities.

NULLS:
  nil, typed nil pointers, invalid decimal.NullDecimal and zero
  normalize.Date cells are sent as explicit NULL.

TRANSACTIONS:
  The Writer never commits. Every statement runs on the Execer it is handed,
  normally the run's *sql.Tx.

SEE ALSO:
  - batch.go: keyed, de-duplicated row accumulation
  - store/store.go: dialects and WithTx
*/
package bulk

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/normalize"
)

// DefaultMaxParams is the bound-parameter ceiling used when neither the
// Writer nor its Dialect names one.
const DefaultMaxParams = 60000

// =============================================================================
// POLICY AND TARGET
// =============================================================================

// Policy decides what happens when a row collides with an existing one.
type Policy int

const (
	PolicyNone Policy = iota
	PolicyIgnore
	PolicyMerge
)

func (p Policy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyMerge:
		return "merge"
	default:
		return "none"
	}
}

// Target describes one destination table.
type Target struct {
	Table   string
	Columns []string
	Policy  Policy

	// ConflictKeys is the unique key targeted by PolicyMerge.
	ConflictKeys []string

	// UpdateColumns are overwritten on merge. Empty means every column
	// that is not a conflict key.
	UpdateColumns []string
}

func (t Target) updateColumns() []string {
	if len(t.UpdateColumns) > 0 {
		return t.UpdateColumns
	}
	keys := make(map[string]bool, len(t.ConflictKeys))
	for _, k := range t.ConflictKeys {
		keys[k] = true
	}
	var cols []string
	for _, c := range t.Columns {
		if !keys[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// =============================================================================
// DIALECT
// =============================================================================

// Dialect carries the placeholder style and parameter ceiling of a driver.
type Dialect struct {
	Name      string
	MaxParams int
	Numbered  bool // $1, $2 ... instead of ?
}

var (
	SQLite   = Dialect{Name: "sqlite3", MaxParams: 32000}
	Postgres = Dialect{Name: "pgx", MaxParams: DefaultMaxParams, Numbered: true}
)

func (d Dialect) placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites the ? placeholders of a hand-written statement into the
// dialect's style. Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(d.placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// =============================================================================
// CHUNK PLANNING
// =============================================================================

// Span is a half-open row range [From, To).
type Span struct {
	From, To int
}

// ChunkSize is the largest row count whose parameters fit under maxParams.
func ChunkSize(columns, maxParams int) int {
	if columns <= 0 {
		return 0
	}
	if maxParams <= 0 {
		maxParams = DefaultMaxParams
	}
	n := maxParams / columns
	if n < 1 {
		n = 1
	}
	return n
}

// Plan splits rows into consecutive spans of at most ChunkSize rows.
func Plan(rows, columns, maxParams int) []Span {
	if rows <= 0 || columns <= 0 {
		return nil
	}
	size := ChunkSize(columns, maxParams)
	spans := make([]Span, 0, (rows+size-1)/size)
	for from := 0; from < rows; from += size {
		to := from + size
		if to > rows {
			to = rows
		}
		spans = append(spans, Span{From: from, To: to})
	}
	return spans
}

// =============================================================================
// WRITER
// =============================================================================

// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Writer issues batched statements for one run.
type Writer struct {
	Dialect Dialect

	// MaxParams overrides Dialect.MaxParams when positive.
	MaxParams int

	// OnWrite is called after each successful statement.
	OnWrite func(table string, rows int, elapsed time.Duration)
}

// NewWriter creates a writer for the dialect with its default ceiling.
func NewWriter(d Dialect) *Writer {
	return &Writer{Dialect: d}
}

func (w *Writer) maxParams() int {
	if w.MaxParams > 0 {
		return w.MaxParams
	}
	if w.Dialect.MaxParams > 0 {
		return w.Dialect.MaxParams
	}
	return DefaultMaxParams
}

// Flush writes every row accumulated in b. No-op for an empty batch.
func (w *Writer) Flush(ctx context.Context, ex Execer, b *Batch) (int, error) {
	return w.Write(ctx, ex, b.Target, b.Rows())
}

// Write inserts rows into t, one statement per planned chunk. It returns the
// number of rows submitted. No-op on empty input.
func (w *Writer) Write(ctx context.Context, ex Execer, t Target, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("bulk write %s: no columns", t.Table)
	}
	if t.Policy == PolicyMerge && len(t.ConflictKeys) == 0 {
		return 0, fmt.Errorf("bulk write %s: merge policy needs conflict keys", t.Table)
	}

	written := 0
	for _, span := range Plan(len(rows), len(t.Columns), w.maxParams()) {
		chunk := rows[span.From:span.To]

		args := make([]any, 0, len(chunk)*len(t.Columns))
		for i, row := range chunk {
			if len(row) != len(t.Columns) {
				return written, fmt.Errorf("bulk write %s: row %d has %d cells, want %d",
					t.Table, span.From+i, len(row), len(t.Columns))
			}
			for _, cell := range row {
				args = append(args, nullable(cell))
			}
		}

		start := time.Now()
		if _, err := ex.ExecContext(ctx, w.Render(t, len(chunk)), args...); err != nil {
			return written, fmt.Errorf("bulk write %s (rows %d-%d): %w", t.Table, span.From, span.To-1, err)
		}
		written += len(chunk)
		if w.OnWrite != nil {
			w.OnWrite(t.Table, len(chunk), time.Since(start))
		}
	}
	return written, nil
}

// Render builds the statement for n rows of t.
func (w *Writer) Render(t Target, n int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(t.Columns, ", "))
	sb.WriteString(") VALUES ")

	param := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range t.Columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(w.Dialect.placeholder(param))
			param++
		}
		sb.WriteByte(')')
	}

	switch t.Policy {
	case PolicyIgnore:
		sb.WriteString(" ON CONFLICT DO NOTHING")
	case PolicyMerge:
		sb.WriteString(" ON CONFLICT (")
		sb.WriteString(strings.Join(t.ConflictKeys, ", "))
		sb.WriteString(")")
		cols := t.updateColumns()
		if len(cols) == 0 {
			sb.WriteString(" DO NOTHING")
			break
		}
		sb.WriteString(" DO UPDATE SET ")
		for i, c := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c)
			sb.WriteString(" = excluded.")
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// nullable substitutes absent values with an explicit NULL.
func nullable(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		return x.Decimal.String()
	case decimal.Decimal:
		return x.String()
	case normalize.Date:
		if x.IsZero() {
			return nil
		}
		return x.String()
	default:
		return v
	}
}
