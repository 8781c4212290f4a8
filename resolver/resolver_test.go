package resolver_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/resolver"
)

func sequentialIDs() resolver.IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

// countingQuerier counts round-trips to the store.
type countingQuerier struct {
	db      *sql.DB
	queries int
}

func (c *countingQuerier) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	c.queries++
	return c.db.QueryContext(ctx, q, args...)
}

func seededDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE roles (id TEXT PRIMARY KEY, name TEXT UNIQUE);
		INSERT INTO roles VALUES ('r-1', 'Engineer'), ('r-2', 'Project Manager');
		CREATE TABLE projects (id TEXT PRIMARY KEY, name TEXT, client TEXT);
		INSERT INTO projects VALUES ('p-1', 'Apollo', 'Acme'), ('p-2', 'Apollo', 'Globex'), ('p-3', 'Zeus', NULL);
	`)
	require.NoError(t, err)
	return db
}

var (
	roles          = resolver.Family{Name: "roles", Query: "SELECT name, id FROM roles"}
	projects       = resolver.Family{Name: "projects", Query: "SELECT name, COALESCE(client, ''), id FROM projects"}
	projectsByName = resolver.Family{Name: "projects_by_name", Query: "SELECT name, id FROM projects"}
)

func TestSet_LoadsOncePerFamily(t *testing.T) {
	// GIVEN: two existing roles
	// WHEN: resolving many keys
	// THEN: the store is queried exactly once for the family

	ctx := context.Background()
	q := &countingQuerier{db: seededDB(t)}
	set := resolver.NewSet(q, sequentialIDs())

	m, err := set.Get(ctx, roles)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		id, ok := m.Resolve("  ENGINEER ")
		require.True(t, ok)
		assert.Equal(t, "r-1", id)
	}

	again, err := set.Get(ctx, roles)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, 1, q.queries)
	assert.True(t, set.Loaded(roles))
}

func TestMap_ResolveOrCreate_NeverMintsTwice(t *testing.T) {
	ctx := context.Background()
	set := resolver.NewSet(seededDB(t), sequentialIDs())
	m, err := set.Get(ctx, roles)
	require.NoError(t, err)

	id, created := m.ResolveOrCreate("Engineer")
	assert.Equal(t, "r-1", id)
	assert.False(t, created)

	id1, created1 := m.ResolveOrCreate("Data Scientist")
	id2, created2 := m.ResolveOrCreate(" data   SCIENTIST")
	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, id1, id2)
	assert.True(t, m.Created(id1))
	assert.False(t, m.Created("r-1"))

	// Visible to plain lookups immediately.
	got, ok := m.Resolve("data scientist")
	require.True(t, ok)
	assert.Equal(t, id1, got)

	blank, created := m.ResolveOrCreate("   ")
	assert.Empty(t, blank)
	assert.False(t, created)
}

func TestMap_CompositeAndAmbiguousKeys(t *testing.T) {
	ctx := context.Background()
	set := resolver.NewSet(seededDB(t), sequentialIDs())
	maps, err := set.Preload(ctx, projects, projectsByName)
	require.NoError(t, err)
	byPair, byName := maps[0], maps[1]

	id, ok := byPair.Resolve("apollo", "GLOBEX")
	require.True(t, ok)
	assert.Equal(t, "p-2", id)

	id, ok = byPair.Resolve("Zeus", "")
	require.True(t, ok)
	assert.Equal(t, "p-3", id)

	_, ok = byName.Resolve("Apollo")
	assert.False(t, ok, "same name under two clients never resolves by name")
	assert.True(t, byName.Ambiguous("apollo"))

	id, ok = byName.Resolve("zeus")
	require.True(t, ok)
	assert.Equal(t, "p-3", id)
}

func TestMap_ResolveOrCreate_RefusesAmbiguousKey(t *testing.T) {
	// GIVEN: "Apollo" bound to two persisted projects
	// WHEN: asking to resolve or create it
	// THEN: nothing is minted and the key stays ambiguous

	ctx := context.Background()
	set := resolver.NewSet(seededDB(t), sequentialIDs())
	byName, err := set.Get(ctx, projectsByName)
	require.NoError(t, err)
	before := byName.Len()

	id, created := byName.ResolveOrCreate("APOLLO")
	assert.Empty(t, id)
	assert.False(t, created)
	assert.True(t, byName.Ambiguous("apollo"))
	assert.Equal(t, before, byName.Len())
}

func TestSet_LoadErrorIsWrapped(t *testing.T) {
	set := resolver.NewSet(seededDB(t), nil)
	_, err := set.Get(context.Background(), resolver.Family{Name: "ghosts", Query: "SELECT name, id FROM ghosts"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ghosts keys")
}

func TestSet_FamilyWithoutQueryStartsEmpty(t *testing.T) {
	set := resolver.NewSet(seededDB(t), nil)
	m, err := set.Get(context.Background(), resolver.Family{Name: "scratch"})
	require.NoError(t, err)
	assert.Zero(t, m.Len())

	id, created := m.ResolveOrCreate("anything")
	assert.True(t, created)
	assert.Len(t, id, 36, "uuid by default")
}
