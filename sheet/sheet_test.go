package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/engine"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Resources"))
	require.NoError(t, f.SetSheetRow("Resources", "A2", &[]any{"Name", "Email", "Hire Date", "Notes"}))
	require.NoError(t, f.SetSheetRow("Resources", "A3", &[]any{"Ada Lovelace", "ada@x.com", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), ""}))
	require.NoError(t, f.SetSheetRow("Resources", "A5", &[]any{"Bob Smith", "bob@x.com"}))

	_, err := f.NewSheet("Leave Types")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Leave Types", "A1", &[]any{"Value"}))
	require.NoError(t, f.SetSheetRow("Leave Types", "A2", &[]any{"Ferie"}))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestLoad_SheetsBecomeSections(t *testing.T) {
	// GIVEN: a workbook with a leading blank row, a blank data row and a date cell
	// WHEN: loading it
	// THEN: each sheet is a snake-cased section of non-blank records

	p, err := Load(workbook(t), Options{})
	require.NoError(t, err)

	require.Len(t, p.Section("resources"), 2)
	require.Len(t, p["leave_types"], 1)
	assert.Equal(t, "Ferie", p["leave_types"][0].String("Value"))

	ada := p.Section("resources")[0]
	assert.Equal(t, "ada@x.com", ada.String("Email"))
	assert.Equal(t, "2024-03-15", ada.Date("Hire Date").String())
	_, present := ada.Get("Notes")
	assert.False(t, present, "blank cells are absent")

	bob := p.Section("resources")[1]
	assert.Equal(t, "Bob Smith", bob.String("Name"))
	assert.True(t, bob.Date("Hire Date").IsZero())
}

func TestLoad_PercentCellsAreScaled(t *testing.T) {
	// GIVEN: a staffing sheet whose allocation cells are formatted as 0% and 0.00%
	// WHEN: loading it
	// THEN: the records carry the percentages the sheet shows, plain numbers stay raw

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Email", "Project", "2024-03-11", "2024-03-18", "Hours"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"ada@x.com", "Apollo", 0.5, 0.125, 0.5}))

	whole, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	precise, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", whole))
	require.NoError(t, f.SetCellStyle("Sheet1", "D2", "D2", precise))

	p, err := FromFile(f, Options{Flat: true})
	require.NoError(t, err)
	require.Len(t, p[engine.DefaultSection], 1)

	rec := p[engine.DefaultSection][0]
	assert.Equal(t, "50", rec.String("2024-03-11"))
	assert.Equal(t, "12.5", rec.String("2024-03-18"))
	assert.Equal(t, "0.5", rec.String("Hours"))
}

func TestLoad_Flat(t *testing.T) {
	p, err := Load(workbook(t), Options{Flat: true})
	require.NoError(t, err)

	assert.Len(t, p, 1)
	assert.Len(t, p[engine.DefaultSection], 3)
}

func TestLoad_NotAWorkbook(t *testing.T) {
	_, err := Load(bytes.NewBufferString("name,email\n"), Options{})
	assert.Error(t, err)
}

func TestSectionName(t *testing.T) {
	tests := map[string]string{
		"Leave Types":       "leave_types",
		"resources":         "resources",
		" Resource-Skills ": "resource_skills",
		"Users & Perms":     "users_perms",
		"Calendar 2024":     "calendar_2024",
	}
	for in, want := range tests {
		assert.Equal(t, want, SectionName(in), in)
	}
}
