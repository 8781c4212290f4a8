package importers

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
)

// UsersPermissions imports the users_permissions family.
//
//	users:       Username, Role, Resource, Active
//	permissions: Role, Page, Allowed
//
// Usernames that already exist are updated in place with one direct
// statement each; new usernames are batch-inserted with the default
// password hash and must change it at first login. Permissions merge on
// (role, page).
type UsersPermissions struct{}

func (UsersPermissions) Family() string { return "users_permissions" }

type userUpdate struct {
	id         string
	role       string
	resourceID *string
	active     bool
}

func (UsersPermissions) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	users, err := run.Map(ctx, Users)
	if err != nil {
		return err
	}
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}

	newUsers := bulk.NewBatch(appUsersTarget)
	var updates []userUpdate
	seen := make(map[string]bool)

	for i, rec := range p.Section("users") {
		ref := row("users", i)

		username := rec.String("Username")
		if username == "" {
			run.Warnf("%s: missing Username, skipped", ref)
			continue
		}
		role := strings.ToUpper(rec.String("Role"))
		if role == "" {
			run.Warnf("%s: missing Role, skipped", ref)
			continue
		}

		var resourceID *string
		if resource := rec.String("Resource"); resource != "" {
			id, reason := ppl.resolve(resource)
			if id == "" {
				run.Warnf("%s: resource %q %s, skipped", ref, resource, reason)
				continue
			}
			resourceID = &id
		}
		active := rec.BoolOr("Active", true)

		key := strings.ToLower(username)
		if seen[key] {
			run.Warnf("%s: duplicate username %q, last occurrence kept", ref, username)
		}
		seen[key] = true

		id, _ := users.ResolveOrCreate(username)
		if id == "" {
			run.Warnf("%s: username %q matches several existing users, skipped", ref, username)
			continue
		}
		if !users.Created(id) {
			updates = append(updates, userUpdate{id: id, role: role, resourceID: resourceID, active: active})
			continue
		}
		// Hash filled in below, once, only if there is at least one new user.
		newUsers.Put(id, id, username, "", role, resourceID, active, true)
	}

	for _, u := range updates {
		if _, err := run.Exec(ctx,
			`UPDATE app_users SET role = ?, resource_id = ?, is_active = ? WHERE id = ?`,
			u.role, u.resourceID, u.active, u.id,
		); err != nil {
			return fmt.Errorf("update user %s: %w", u.id, err)
		}
	}

	if newUsers.Len() > 0 {
		hash, err := run.DefaultPasswordHash()
		if err != nil {
			return fmt.Errorf("hash default password: %w", err)
		}
		rows := newUsers.Rows()
		for _, r := range rows {
			r[2] = hash
		}
		if _, err := run.Write(ctx, newUsers.Target, rows); err != nil {
			return err
		}
	}

	permissions := bulk.NewBatch(rolePermissionsTarget)
	for i, rec := range p.Section("permissions") {
		ref := row("permissions", i)
		role := strings.ToUpper(rec.String("Role"))
		page := rec.String("Page")
		if role == "" || page == "" {
			run.Warnf("%s: missing Role/Page, skipped", ref)
			continue
		}
		if permissions.Put(role+"|"+page, role, page, rec.Bool("Allowed")) {
			run.Warnf("%s: duplicate permission %s on %q, last occurrence kept", ref, role, page)
		}
	}
	return run.Flush(ctx, permissions)
}
