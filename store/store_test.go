package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/store"
)

func openStore(t *testing.T) *store.Store {
	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_BootstrapsEveryTable(t *testing.T) {
	st := openStore(t)

	counts, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(store.Tables))
	for _, table := range store.Tables {
		assert.Zero(t, counts[table], table)
	}
	assert.Equal(t, bulk.SQLite, st.Dialect())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: a transaction that inserts a role and then fails
	// WHEN: WithTx returns
	// THEN: the insert is undone

	ctx := context.Background()
	st := openStore(t)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO roles (id, name) VALUES ('r-1', 'Engineer')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := st.Count(ctx, "roles")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO roles (id, name) VALUES ('r-1', 'Engineer')`)
		return err
	}))

	n, err := st.Count(ctx, "roles")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	err := st.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (id, resource_id, project_id) VALUES ('a-1', 'missing', 'missing')`)
		return err
	})
	assert.Error(t, err)
}

func TestNaturalKeysAreUnique(t *testing.T) {
	// GIVEN: a project without a client and a global holiday
	// WHEN: inserting a second row with the same natural key
	// THEN: the store rejects it even though the nullable column is NULL

	ctx := context.Background()
	st := openStore(t)
	insert := func(q string) error {
		return st.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, q)
			return err
		})
	}

	require.NoError(t, insert(`INSERT INTO projects (id, name, name_key) VALUES ('p-1', 'Zeus', 'zeus')`))
	assert.Error(t, insert(`INSERT INTO projects (id, name, name_key) VALUES ('p-2', 'Zeus', 'zeus')`))

	require.NoError(t, insert(`INSERT INTO calendar_events (id, name, date) VALUES ('e-1', 'Natale', '2024-12-25')`))
	assert.Error(t, insert(`INSERT INTO calendar_events (id, name, date) VALUES ('e-2', 'Christmas', '2024-12-25')`))
	require.NoError(t, insert(`INSERT INTO calendar_events (id, name, date, location, location_key)
		VALUES ('e-3', 'Sant Ambrogio', '2024-12-25', 'Milano', 'milano')`))
}

func TestReset_ClearsChildrenBeforeParents(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, st.WithTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`INSERT INTO clients (id, name) VALUES ('c-1', 'Acme')`,
			`INSERT INTO projects (id, name, client_id, name_key, client_key) VALUES ('p-1', 'Apollo', 'c-1', 'apollo', 'c-1')`,
			`INSERT INTO resources (id, name, email) VALUES ('res-1', 'Ada', 'ada@x.com')`,
			`INSERT INTO assignments (id, resource_id, project_id) VALUES ('a-1', 'res-1', 'p-1')`,
			`INSERT INTO allocations (id, assignment_id, allocation_date, percentage) VALUES ('al-1', 'a-1', '2024-03-15', 50)`,
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, st.Reset(ctx))

	counts, err := st.Counts(ctx)
	require.NoError(t, err)
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
}

func TestCount_RejectsUnknownTable(t *testing.T) {
	_, err := openStore(t).Count(context.Background(), "roles; DROP TABLE roles")
	assert.Error(t, err)
}
