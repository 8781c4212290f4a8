package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsCredentials(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"family", "core_entities",
		"token", "abc",
		"Default_Password", "Staffing!2024",
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlIjoiQURNSU4ifQ.sig",
		"dangling",
	})
	assert.Equal(t, []interface{}{
		"family", "core_entities",
		"token", "[REDACTED]",
		"Default_Password", "[REDACTED]",
		"header", "[REDACTED]",
		"dangling",
	}, kv)
}

func TestLogger_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("run", "r-1").Info("import committed", "family", "staffing", "warnings", 2)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "import committed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "r-1", fields["run"])
	assert.Equal(t, "staffing", fields["family"])
	assert.EqualValues(t, 2, fields["warnings"])
}
