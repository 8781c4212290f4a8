package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/normalize"
)

func TestParsePayload_Shapes(t *testing.T) {
	t.Run("object of arrays", func(t *testing.T) {
		p, err := ParsePayload([]byte(`{"resources": [{"Name": "Ada"}], "roles": []}`))
		require.NoError(t, err)
		assert.Len(t, p.Section("resources"), 1)
		assert.Empty(t, p.Section("roles"))
		assert.Equal(t, 1, p.Size())
	})

	t.Run("bare array", func(t *testing.T) {
		p, err := ParsePayload([]byte(`[{"Resource": "a@x.com"}, {"Resource": "b@x.com"}]`))
		require.NoError(t, err)
		assert.Len(t, p.Section(DefaultSection), 2)
	})

	t.Run("null", func(t *testing.T) {
		p, err := ParsePayload([]byte(`null`))
		require.NoError(t, err)
		assert.Zero(t, p.Size())
	})

	t.Run("section is not an array", func(t *testing.T) {
		_, err := ParsePayload([]byte(`{"resources": {"Name": "Ada"}}`))
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestPayload_SectionMatchesLoosely(t *testing.T) {
	p := Payload{"Seniority Levels": {{"Value": "Junior"}}}
	assert.Len(t, p.Section("seniority_levels"), 1)
	assert.Nil(t, p.Section("locations"))
}

func TestRecord_AccessorsStateTheirDefaults(t *testing.T) {
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(`[{
		"Name": "  Ada Lovelace ",
		"hire date": 45366,
		"Daily Cost": "350,50",
		"Half Day": "sì",
		"Skills": "Go, SQL,, Kafka",
		"Seniority": 7,
		"Notes": "   "
	}]`), &p))
	rec := p.Section(DefaultSection)[0]

	assert.Equal(t, "Ada Lovelace", rec.String("Name"))
	assert.Equal(t, "Ada Lovelace", rec.String("NAME"), "labels match case-insensitively")
	assert.Equal(t, "", rec.String("Email"))

	assert.Nil(t, rec.OptString("Notes"), "blank is null")
	assert.Nil(t, rec.OptString("Email"), "absent is null")

	assert.Equal(t, normalize.NewDate(2024, 3, 15), rec.Date("Hire Date"))
	assert.True(t, rec.Date("End Date").IsZero())

	require.True(t, rec.Decimal("Daily Cost").Valid)
	assert.Equal(t, "350.5", rec.Decimal("Daily Cost").Decimal.String())
	assert.False(t, rec.Decimal("Budget").Valid)

	assert.True(t, rec.Bool("Half Day"))
	assert.False(t, rec.Bool("Commercial"))
	assert.True(t, rec.BoolOr("Active", true))

	assert.Equal(t, []string{"Go", "SQL", "Kafka"}, rec.List("Skills"))
	assert.Nil(t, rec.List("Tutor"))

	require.NotNil(t, rec.OptInt("Seniority"))
	assert.Equal(t, 7, *rec.OptInt("Seniority"))
	assert.Nil(t, rec.OptInt("Level"))
}

func TestWarnings_ListIsACopy(t *testing.T) {
	w := &Warnings{}
	assert.NotNil(t, w.List())
	w.Addf("row %d: %s", 3, "missing email")
	list := w.List()
	list[0] = "changed"
	assert.Equal(t, []string{"row 3: missing email"}, w.List())
}
