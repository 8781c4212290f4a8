package importers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/store"
)

func TestCore_LandsEveryFamily(t *testing.T) {
	h := withCore(t)

	assert.Equal(t, 2, h.count("horizontals"))
	assert.Equal(t, 1, h.count("locations"))
	assert.Equal(t, 2, h.count("leave_types"))
	assert.Equal(t, 2, h.count("calendar_events"))
	assert.Equal(t, 2, h.count("roles"))
	assert.Equal(t, 2, h.count("clients"))
	assert.Equal(t, 3, h.count("resources"))
	assert.Equal(t, 2, h.count("skills"), "go and Go are one skill")
	assert.Equal(t, 3, h.count("resource_skills"))
	assert.Equal(t, 3, h.count("projects"))

	// Presentable casing on create, lowercase email.
	assert.Equal(t, "Digital", h.queryString(`SELECT value FROM horizontals WHERE value = 'Digital'`))
	assert.Equal(t, "Bob Smith", h.queryString(`SELECT name FROM resources WHERE email = 'bob@x.com'`))

	// Dates and derived values.
	assert.Equal(t, "2024-03-15", h.queryString(`SELECT hire_date FROM resources WHERE email = 'ada@x.com'`))
	assert.Equal(t, "LOCAL_HOLIDAY", h.queryString(`SELECT type FROM calendar_events WHERE date = '2024-03-15'`))
	assert.Equal(t, "HOLIDAY", h.queryString(`SELECT type FROM calendar_events WHERE date = '2024-12-25'`))
	assert.Equal(t, 14.0, h.queryFloat(`SELECT daily_expenses FROM roles WHERE name = 'Engineer'`))
	assert.Equal(t, 17.5, h.queryFloat(`SELECT daily_expenses FROM roles WHERE name = 'Manager'`))

	// Zeus was given "acme" and resolved to the Acme client.
	assert.Equal(t, "Acme", h.queryString(`SELECT c.name FROM projects p JOIN clients c ON c.id = p.client_id WHERE p.name = 'Zeus'`))

	// Tutor column applied after resources were written.
	assert.Equal(t, h.resourceID("bob@x.com"), h.queryString(`SELECT tutor_id FROM resources WHERE email = 'ada@x.com'`))
}

func TestCore_Idempotence(t *testing.T) {
	// GIVEN: a committed core_entities import
	// WHEN: the identical payload is imported again
	// THEN: every table has the same row count and no warnings are raised

	h := withCore(t)
	before := map[string]int{}
	for _, table := range store.Tables {
		before[table] = h.count(table)
	}

	res := h.run("core_entities", corePayload)
	assert.Empty(t, res.Warnings)

	for _, table := range store.Tables {
		assert.Equal(t, before[table], h.count(table), table)
	}
	assert.Equal(t, h.count("resources"), int(h.queryFloat(`SELECT COUNT(DISTINCT email) FROM resources`)))
}

func TestCore_DuplicateEmailLastOccurrenceWins(t *testing.T) {
	// GIVEN: two resources sharing a@x.com, the first without a role
	// WHEN: importing them in one run
	// THEN: one row lands, carrying the fields of the second occurrence

	h := newHarness(t, engine.Options{})
	res := h.run("core_entities", `{
		"roles": [{"Name": "Engineer"}],
		"resources": [
			{"Name": "A", "Email": "a@x.com", "Role": ""},
			{"Name": "A Two", "Email": "A@x.com ", "Role": "Engineer"}
		]
	}`)

	assert.Equal(t, 1, h.count("resources"))
	assert.Equal(t, "A Two", h.queryString(`SELECT name FROM resources`))
	assert.Equal(t, "Engineer", h.queryString(`SELECT r.name FROM resources s JOIN roles r ON r.id = s.role_id`))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "duplicate email")
}

func TestCore_RowDefectsAreWarnings(t *testing.T) {
	h := newHarness(t, engine.Options{})
	res := h.run("core_entities", `{
		"calendar": [{"Date": "not a date", "Name": "Nope"}],
		"resources": [
			{"Name": "No Mail"},
			{"Name": "Astro", "Email": "astro@x.com", "Role": "Astronaut"},
			{"Name": "Fine", "Email": "fine@x.com"}
		],
		"projects": [{"Name": "Orphan", "Client": "Nobody Inc"}]
	}`)

	assert.Equal(t, 1, h.count("resources"))
	assert.Zero(t, h.count("calendar_events"))
	assert.Zero(t, h.count("projects"))
	assert.Equal(t, []string{
		"calendar row 1: missing or unreadable Date, skipped",
		`resources row 1: missing Email, skipped`,
		`resources row 2: role "Astronaut" not found, skipped`,
		`projects row 1: client "Nobody Inc" not found, skipped`,
	}, res.Warnings)
}

func TestCore_ExistingRolesAreNotUpdated(t *testing.T) {
	h := withCore(t)
	h.run("core_entities", `{"roles": [{"Name": "engineer", "Daily Cost": 999}]}`)

	assert.Equal(t, 2, h.count("roles"))
	assert.Equal(t, 400.0, h.queryFloat(`SELECT daily_cost FROM roles WHERE name = 'Engineer'`))
}

func TestCore_ChunkedWritesUnderSmallCeiling(t *testing.T) {
	// GIVEN: a ceiling of 20 parameters (2 resource rows per statement)
	// WHEN: importing the core payload
	// THEN: the result is the same as with the default ceiling

	h := newHarness(t, engine.Options{MaxParams: 20})
	res := h.run("core_entities", corePayload)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, 3, res.RowsWritten["resources"])
	assert.Equal(t, 3, h.count("resources"))
	assert.Equal(t, 3, h.count("projects"))
}

func TestCore_NaturalKeysStayUniqueAcrossReruns(t *testing.T) {
	// GIVEN: the core payload imported once
	// WHEN: a second row for an existing project or event is forced in, then the payload is rerun
	// THEN: the store refuses the duplicates and reruns add nothing

	h := withCore(t)
	db := h.st.DB()

	_, err := db.Exec(`INSERT INTO projects (id, name, client_id, name_key, client_key)
		SELECT 'dup-p', 'Zeus', id, 'zeus', id FROM clients WHERE name = 'Acme'`)
	assert.Error(t, err, "same (name, client)")
	_, err = db.Exec(`INSERT INTO calendar_events (id, name, date) VALUES ('dup-e', 'Christmas', '2024-12-25')`)
	assert.Error(t, err, "same (date, no location)")

	for i := 0; i < 2; i++ {
		res := h.run("core_entities", corePayload)
		assert.Empty(t, res.Warnings)
	}
	assert.Equal(t, 3, h.count("projects"))
	assert.Equal(t, 2, h.count("calendar_events"))
	assert.Equal(t, "Natale", h.queryString(`SELECT name FROM calendar_events WHERE date = '2024-12-25'`))
}

func TestCore_AmbiguousKeysAreNeverMinted(t *testing.T) {
	// GIVEN: two roles and two skills whose names differ only by case
	// WHEN: importing rows that name them
	// THEN: the rows or links are skipped with a warning, no third row appears

	h := newHarness(t, engine.Options{})
	_, err := h.st.DB().Exec(`
		INSERT INTO roles (id, name) VALUES ('r-1', 'Engineer'), ('r-2', 'ENGINEER');
		INSERT INTO skills (id, name) VALUES ('s-1', 'Go'), ('s-2', 'GO');
	`)
	require.NoError(t, err)

	payload := `{
		"roles": [{"Name": "engineer", "Daily Cost": 1}],
		"resources": [{"Name": "Ada Lovelace", "Email": "ada@x.com", "Skills": "go, SQL"}]
	}`
	for i := 0; i < 2; i++ {
		res := h.run("core_entities", payload)
		assert.Equal(t, []string{
			`roles row 1: role "engineer" matches several existing roles, skipped`,
			`resources row 1: skill "go" matches several existing skills, link skipped`,
		}, res.Warnings)
	}

	assert.Equal(t, 2, h.count("roles"))
	assert.Equal(t, 3, h.count("skills"), "SQL is new, go is not")
	assert.Equal(t, 1, h.count("resources"))
	assert.Equal(t, 1, h.count("resource_skills"))
}
