/*
Package resolver maps business-meaningful natural keys to persisted identifiers.

PURPOSE:
  Spreadsheet payloads reference entities by name or email, never by id.
  For each entity family the resolver bulk-loads (key -> id) for every
  existing row exactly once per run, then answers every lookup from memory.
  New entities get a freshly minted id that is registered immediately, so a
  later row in the same run sees it.

KEYS:
  Keys are normalized with normalize.Key (trim, lowercase, collapse spaces).
  Composite keys pass several parts: m.Resolve(projectName, clientName).

AMBIGUITY:
  A secondary map (e.g. project by name only) can see the same key bound to
  two different ids. Such a key never resolves and is never minted again;
  Ambiguous reports it so the caller can warn precisely.

SCOPE:
  A Set belongs to one run. Nothing is cached across runs, so two concurrent
  runs may mint different ids for the same new key; the store's unique
  constraints decide which one lands.

SEE ALSO:
  - importers/families.go: the concrete families and their load queries
*/
package resolver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/warp/staffing-engine/normalize"
)

// IDFunc mints a new globally unique identifier.
type IDFunc func() string

// NewID is the default identifier generator.
func NewID() string { return uuid.NewString() }

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// FAMILY
// =============================================================================

// Family names one natural-key space and how to load it.
type Family struct {
	Name string

	// Query selects the key columns followed by the id as the last column.
	Query string
}

// =============================================================================
// MAP
// =============================================================================

// Map is the in-memory key -> id mapping of one family.
type Map struct {
	Family string

	ids       map[string]string
	ambiguous map[string]bool
	created   map[string]bool
	newID     IDFunc
}

// NewMap creates an empty map. A nil newID uses NewID.
func NewMap(family string, newID IDFunc) *Map {
	if newID == nil {
		newID = NewID
	}
	return &Map{
		Family:    family,
		ids:       make(map[string]string),
		ambiguous: make(map[string]bool),
		created:   make(map[string]bool),
		newID:     newID,
	}
}

// Register binds an existing id to key. Registering a second, different id
// for the same key marks the key ambiguous.
func (m *Map) Register(id string, parts ...string) {
	key := normalize.Key(parts...)
	if isBlank(key) || id == "" {
		return
	}
	if prev, ok := m.ids[key]; ok && prev != id {
		m.ambiguous[key] = true
		return
	}
	m.ids[key] = id
}

// Resolve returns the id bound to key.
func (m *Map) Resolve(parts ...string) (string, bool) {
	key := normalize.Key(parts...)
	if isBlank(key) || m.ambiguous[key] {
		return "", false
	}
	id, ok := m.ids[key]
	return id, ok
}

// ResolveOrCreate returns the bound id, or mints and registers a new one.
// created reports whether the id was minted by this call. A blank or
// ambiguous key resolves to ("", false) and is never minted.
func (m *Map) ResolveOrCreate(parts ...string) (id string, created bool) {
	key := normalize.Key(parts...)
	if isBlank(key) || m.ambiguous[key] {
		return "", false
	}
	if id, ok := m.ids[key]; ok {
		return id, false
	}
	id = m.newID()
	m.ids[key] = id
	m.created[id] = true
	return id, true
}

// Ambiguous reports whether key is bound to more than one existing id.
func (m *Map) Ambiguous(parts ...string) bool {
	return m.ambiguous[normalize.Key(parts...)]
}

// Created reports whether id was minted during this run.
func (m *Map) Created(id string) bool { return m.created[id] }

// Len is the number of distinct keys.
func (m *Map) Len() int { return len(m.ids) }

// isBlank is true for "" and for composite keys whose parts are all empty.
func isBlank(key string) bool {
	for _, r := range key {
		if r != '|' {
			return false
		}
	}
	return true
}

// =============================================================================
// SET
// =============================================================================

// Set is the request-scoped collection of maps, threaded explicitly through
// an importer. Each family is loaded from the store on first use only.
type Set struct {
	q     Querier
	newID IDFunc
	maps  map[string]*Map
}

// NewSet creates a set that loads through q.
func NewSet(q Querier, newID IDFunc) *Set {
	if newID == nil {
		newID = NewID
	}
	return &Set{q: q, newID: newID, maps: make(map[string]*Map)}
}

// Get returns the map of f, loading it on first use.
func (s *Set) Get(ctx context.Context, f Family) (*Map, error) {
	if m, ok := s.maps[f.Name]; ok {
		return m, nil
	}
	m := NewMap(f.Name, s.newID)
	if f.Query != "" {
		if err := s.load(ctx, m, f.Query); err != nil {
			return nil, fmt.Errorf("load %s keys: %w", f.Name, err)
		}
	}
	s.maps[f.Name] = m
	return m, nil
}

// Preload loads every family up front and returns the maps in order.
func (s *Set) Preload(ctx context.Context, families ...Family) ([]*Map, error) {
	out := make([]*Map, len(families))
	for i, f := range families {
		m, err := s.Get(ctx, f)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// NewID mints an identifier with the set's generator, for rows that have
// no natural key (append-only logs).
func (s *Set) NewID() string { return s.newID() }

// Loaded reports whether f has been loaded in this run.
func (s *Set) Loaded(f Family) bool {
	_, ok := s.maps[f.Name]
	return ok
}

func (s *Set) load(ctx context.Context, m *Map, query string) error {
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) < 2 {
		return fmt.Errorf("key query must select at least one key column and the id, got %d columns", len(cols))
	}

	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		parts := make([]string, len(cols)-1)
		for i := range parts {
			parts[i] = cells[i].String
		}
		m.Register(cells[len(cols)-1].String, parts...)
	}
	return rows.Err()
}
