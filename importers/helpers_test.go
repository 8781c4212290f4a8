package importers_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/importers"
	"github.com/warp/staffing-engine/store"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const testToken = "admin-token"

type adminVerifier struct{}

func (adminVerifier) Verify(_ context.Context, token string) (string, error) {
	if token != testToken {
		return "", sql.ErrNoRows
	}
	return "ADMIN", nil
}

type harness struct {
	t    *testing.T
	st   *store.Store
	orch *engine.Orchestrator
}

func newHarness(t *testing.T, opts engine.Options) *harness {
	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if opts.DefaultPassword == "" {
		opts.DefaultPassword = "Staffing!2024"
	}
	opts.BcryptCost = bcrypt.MinCost

	orch := engine.NewOrchestrator(st, adminVerifier{}, engine.NewRegistry(importers.All()...), opts)
	return &harness{t: t, st: st, orch: orch}
}

// run imports body for family and requires a commit.
func (h *harness) run(family, body string) *engine.Result {
	h.t.Helper()
	p, err := engine.ParsePayload([]byte(body))
	require.NoError(h.t, err)
	res, err := h.orch.Run(context.Background(), engine.Request{Token: testToken, Family: family, Payload: p})
	require.NoError(h.t, err)
	return res
}

func (h *harness) count(table string) int {
	h.t.Helper()
	n, err := h.st.Count(context.Background(), table)
	require.NoError(h.t, err)
	return n
}

func (h *harness) queryString(q string, args ...any) string {
	h.t.Helper()
	var s sql.NullString
	require.NoError(h.t, h.st.DB().QueryRowContext(context.Background(), q, args...).Scan(&s))
	return s.String
}

func (h *harness) queryFloat(q string, args ...any) float64 {
	h.t.Helper()
	var f float64
	require.NoError(h.t, h.st.DB().QueryRowContext(context.Background(), q, args...).Scan(&f))
	return f
}

func (h *harness) queryBool(q string, args ...any) bool {
	h.t.Helper()
	var b bool
	require.NoError(h.t, h.st.DB().QueryRowContext(context.Background(), q, args...).Scan(&b))
	return b
}

func (h *harness) resourceID(email string) string {
	h.t.Helper()
	return h.queryString(`SELECT id FROM resources WHERE email = ?`, email)
}

// corePayload is a small but complete core_entities workbook.
const corePayload = `{
	"horizontals": [{"Value": "digital"}, {"Value": "Data"}],
	"locations": [{"Value": "milano"}],
	"leave_types": [{"Value": "ferie"}, {"Value": "Malattia"}],
	"calendar": [
		{"Date": "2024-12-25", "Name": "Natale"},
		{"Date": 45366, "Name": "Patrono", "Location": "Milano", "Type": "local_holiday"}
	],
	"roles": [
		{"Name": "Engineer", "Seniority Level": "Mid", "Daily Cost": 400},
		{"Name": "Manager", "Daily Cost": "500,00"}
	],
	"clients": [{"Name": "Acme", "Sector": "banking"}, {"Name": "Globex"}],
	"resources": [
		{"Name": "Ada Lovelace", "Email": "ada@x.com", "Role": "engineer", "Hire Date": 45366, "Skills": "Go, SQL", "Tutor": "bob@x.com"},
		{"Name": "Bob Smith", "Email": "BOB@x.com", "Role": "Manager", "Skills": "go"},
		{"Name": "Cy Young", "Email": "cy@x.com"}
	],
	"projects": [
		{"Name": "Apollo", "Client": "Acme", "Budget": 10000, "Start Date": "2024-01-01"},
		{"Name": "Apollo", "Client": "Globex"},
		{"Name": "Zeus", "Client": "acme", "Status": "active"}
	]
}`

// withCore returns a harness with corePayload already imported.
func withCore(t *testing.T) *harness {
	h := newHarness(t, engine.Options{})
	res := h.run("core_entities", corePayload)
	require.Empty(t, res.Warnings)
	return h
}
