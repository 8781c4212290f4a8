package importers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/staffing-engine/engine"
	"golang.org/x/crypto/bcrypt"
)

func TestUsers_NewUsersGetDefaultPassword(t *testing.T) {
	// GIVEN: core entities
	// WHEN: importing two new users
	// THEN: both carry a bcrypt hash of the default password and must change it

	h := withCore(t)
	res := h.run("users_permissions", `{
		"users": [
			{"Username": "ada", "Role": "manager", "Resource": "ada@x.com"},
			{"Username": "viewer", "Role": "VIEWER", "Active": "no"},
			{"Username": "ghost", "Role": "VIEWER", "Resource": "ghost@x.com"}
		]
	}`)

	assert.Equal(t, 2, h.count("app_users"))
	assert.Equal(t, "MANAGER", h.queryString(`SELECT role FROM app_users WHERE username = 'ada'`))
	assert.Equal(t, h.resourceID("ada@x.com"), h.queryString(`SELECT resource_id FROM app_users WHERE username = 'ada'`))
	assert.False(t, h.queryBool(`SELECT is_active FROM app_users WHERE username = 'viewer'`))
	assert.True(t, h.queryBool(`SELECT must_change_password FROM app_users WHERE username = 'ada'`))

	hash := h.queryString(`SELECT password_hash FROM app_users WHERE username = 'ada'`)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Staffing!2024")))

	assert.Equal(t, []string{`users row 3: resource "ghost@x.com" not found, skipped`}, res.Warnings)
}

func TestUsers_ExistingUsersUpdatedInPlace(t *testing.T) {
	// GIVEN: a committed user ada
	// WHEN: importing ADA again with another role
	// THEN: the row is updated, its password hash is left alone

	h := withCore(t)
	h.run("users_permissions", `{"users": [{"Username": "ada", "Role": "manager", "Resource": "ada@x.com"}]}`)
	before := h.queryString(`SELECT password_hash FROM app_users WHERE username = 'ada'`)

	h.run("users_permissions", `{"users": [{"Username": "ADA", "Role": "admin", "Resource": "Ada Lovelace"}]}`)

	assert.Equal(t, 1, h.count("app_users"))
	assert.Equal(t, "ADMIN", h.queryString(`SELECT role FROM app_users WHERE username = 'ada'`))
	assert.Equal(t, before, h.queryString(`SELECT password_hash FROM app_users WHERE username = 'ada'`))
}

func TestPermissions_Merge(t *testing.T) {
	h := newHarness(t, engine.Options{})
	res := h.run("users_permissions", `{
		"permissions": [
			{"Role": "admin", "Page": "/staffing", "Allowed": "yes"},
			{"Role": "ADMIN", "Page": "/staffing", "Allowed": false},
			{"Role": "VIEWER", "Page": "/dashboard", "Allowed": 1}
		]
	}`)

	assert.Equal(t, 2, h.count("role_permissions"))
	assert.False(t, h.queryBool(`SELECT allowed FROM role_permissions WHERE role = 'ADMIN' AND page = '/staffing'`))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "duplicate permission ADMIN")

	h.run("users_permissions", `{"permissions": [{"Role": "viewer", "Page": "/dashboard", "Allowed": "no"}]}`)
	assert.Equal(t, 2, h.count("role_permissions"))
	assert.False(t, h.queryBool(`SELECT allowed FROM role_permissions WHERE role = 'VIEWER'`))
}
