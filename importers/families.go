/*
families.go - Natural-key families and write targets shared by the importers

PURPOSE:
  One place that says how every entity is recognized (its resolver family
  and load query) and how it is written (its bulk target and conflict
  policy). The importers only combine these.

CONFLICT POLICIES:
  Target                     Policy  Key
  -------------------------  ------  ---------------------------------
  dimension tables           ignore  value
  calendar_events            merge   (date, location_key)
  roles, clients             none    name, pre-resolved
  resources                  merge   id resolved by email
  skills (skills family)     merge   id resolved by name, metadata only
  skills (implicit)          ignore  id resolved by name
  projects                   merge   (name_key, client_key)
  assignments                none    (resource, project), pre-resolved
  allocations                merge   (assignment, date)
  resource_skills            merge   (resource, skill)
  link tables                ignore  composite primary key
  append-only logs           none    synthetic id
  app_users                  none    username, existing rows updated directly
  role_permissions           merge   (role, page)

  Ids of merge targets keyed by a natural key are resolved first, so the
  conflict clause only fires when a concurrent run created the same key.

SEE ALSO:
  - resolver/resolver.go: Family, Map, Set
  - bulk/writer.go: Target, Policy
*/
package importers

import (
	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/resolver"
)

// =============================================================================
// RESOLVER FAMILIES
// =============================================================================

// Dimension is one configuration table of (id, value) rows.
type Dimension struct {
	Section string
	Family  resolver.Family
	Target  bulk.Target
}

func dimension(table string) Dimension {
	return Dimension{
		Section: table,
		Family:  resolver.Family{Name: table, Query: "SELECT value, id FROM " + table},
		Target:  bulk.Target{Table: table, Columns: []string{"id", "value"}, Policy: bulk.PolicyIgnore},
	}
}

// Dimensions are written first by core_entities, in this order.
var Dimensions = []Dimension{
	dimension("horizontals"),
	dimension("seniority_levels"),
	dimension("project_statuses"),
	dimension("client_sectors"),
	dimension("locations"),
	dimension("leave_types"),
}

var (
	LeaveTypes = Dimensions[5].Family

	CalendarEvents = resolver.Family{
		Name:  "calendar_events",
		Query: "SELECT date, location_key, id FROM calendar_events",
	}
	Roles   = resolver.Family{Name: "roles", Query: "SELECT name, id FROM roles"}
	Clients = resolver.Family{Name: "clients", Query: "SELECT name, id FROM clients"}

	ResourcesByEmail = resolver.Family{Name: "resources_by_email", Query: "SELECT email, id FROM resources"}
	ResourcesByName  = resolver.Family{Name: "resources_by_name", Query: "SELECT name, id FROM resources"}

	Skills               = resolver.Family{Name: "skills", Query: "SELECT name, id FROM skills"}
	SkillCategories      = resolver.Family{Name: "skill_categories", Query: "SELECT name, id FROM skill_categories"}
	SkillMacroCategories = resolver.Family{Name: "skill_macro_categories", Query: "SELECT name, id FROM skill_macro_categories"}

	Projects = resolver.Family{
		Name: "projects",
		Query: `SELECT p.name, COALESCE(c.name, ''), p.id
			FROM projects p LEFT JOIN clients c ON c.id = p.client_id`,
	}
	ProjectsByName = resolver.Family{Name: "projects_by_name", Query: "SELECT name, id FROM projects"}

	Assignments = resolver.Family{Name: "assignments", Query: "SELECT resource_id, project_id, id FROM assignments"}
	Users       = resolver.Family{Name: "app_users", Query: "SELECT username, id FROM app_users"}
)

// =============================================================================
// WRITE TARGETS
// =============================================================================

var (
	calendarTarget = bulk.Target{
		Table:         "calendar_events",
		Columns:       []string{"id", "name", "date", "type", "location", "location_key"},
		Policy:        bulk.PolicyMerge,
		ConflictKeys:  []string{"date", "location_key"},
		UpdateColumns: []string{"name", "type", "location"},
	}
	rolesTarget = bulk.Target{
		Table:   "roles",
		Columns: []string{"id", "name", "seniority_level", "daily_cost", "daily_expenses"},
		Policy:  bulk.PolicyNone,
	}
	clientsTarget = bulk.Target{
		Table:   "clients",
		Columns: []string{"id", "name", "sector"},
		Policy:  bulk.PolicyNone,
	}
	resourcesTarget = bulk.Target{
		Table: "resources",
		Columns: []string{"id", "name", "email", "role_id", "horizontal", "location",
			"hire_date", "work_seniority", "notes"},
		Policy:       bulk.PolicyMerge,
		ConflictKeys: []string{"id"},
	}
	skillsTarget = bulk.Target{
		Table:         "skills",
		Columns:       []string{"id", "name", "is_certification"},
		Policy:        bulk.PolicyMerge,
		ConflictKeys:  []string{"id"},
		UpdateColumns: []string{"is_certification"},
	}
	implicitSkillsTarget = bulk.Target{
		Table:   "skills",
		Columns: []string{"id", "name", "is_certification"},
		Policy:  bulk.PolicyIgnore,
	}
	skillCategoriesTarget = bulk.Target{
		Table:   "skill_categories",
		Columns: []string{"id", "name"},
		Policy:  bulk.PolicyIgnore,
	}
	skillMacroCategoriesTarget = bulk.Target{
		Table:   "skill_macro_categories",
		Columns: []string{"id", "name"},
		Policy:  bulk.PolicyIgnore,
	}
	skillCategoryMapTarget = bulk.Target{
		Table:   "skill_category_map",
		Columns: []string{"skill_id", "category_id"},
		Policy:  bulk.PolicyIgnore,
	}
	categoryMacroMapTarget = bulk.Target{
		Table:   "skill_category_macro_map",
		Columns: []string{"category_id", "macro_category_id"},
		Policy:  bulk.PolicyIgnore,
	}
	resourceSkillLinksTarget = bulk.Target{
		Table:   "resource_skills",
		Columns: []string{"resource_id", "skill_id"},
		Policy:  bulk.PolicyIgnore,
	}
	resourceSkillsTarget = bulk.Target{
		Table:        "resource_skills",
		Columns:      []string{"resource_id", "skill_id", "level", "acquisition_date", "expiration_date"},
		Policy:       bulk.PolicyMerge,
		ConflictKeys: []string{"resource_id", "skill_id"},
	}
	projectsTarget = bulk.Target{
		Table: "projects",
		Columns: []string{"id", "name", "client_id", "start_date", "end_date", "budget",
			"realization_percentage", "project_manager", "status", "notes", "name_key", "client_key"},
		Policy:       bulk.PolicyMerge,
		ConflictKeys: []string{"name_key", "client_key"},
		UpdateColumns: []string{"name", "start_date", "end_date", "budget",
			"realization_percentage", "project_manager", "status", "notes"},
	}
	assignmentsTarget = bulk.Target{
		Table:   "assignments",
		Columns: []string{"id", "resource_id", "project_id"},
		Policy:  bulk.PolicyNone,
	}
	allocationsTarget = bulk.Target{
		Table:         "allocations",
		Columns:       []string{"id", "assignment_id", "allocation_date", "percentage"},
		Policy:        bulk.PolicyMerge,
		ConflictKeys:  []string{"assignment_id", "allocation_date"},
		UpdateColumns: []string{"percentage"},
	}
	resourceRequestsTarget = bulk.Target{
		Table: "resource_requests",
		Columns: []string{"id", "project_id", "role_id", "requestor_id", "start_date", "end_date",
			"is_long_term", "is_commercial", "status", "notes"},
		Policy: bulk.PolicyNone,
	}
	interviewsTarget = bulk.Target{
		Table: "interviews",
		Columns: []string{"id", "candidate_name", "candidate_surname", "birth_date", "role_id",
			"horizontal", "interview_date", "feedback", "status", "notes"},
		Policy: bulk.PolicyNone,
	}
	interviewersTarget = bulk.Target{
		Table:   "interview_interviewers",
		Columns: []string{"interview_id", "resource_id"},
		Policy:  bulk.PolicyIgnore,
	}
	leaveRequestsTarget = bulk.Target{
		Table: "leave_requests",
		Columns: []string{"id", "resource_id", "leave_type_id", "start_date", "end_date",
			"status", "is_half_day", "notes"},
		Policy: bulk.PolicyNone,
	}
	leaveApproversTarget = bulk.Target{
		Table:   "leave_request_approvers",
		Columns: []string{"leave_request_id", "resource_id"},
		Policy:  bulk.PolicyIgnore,
	}
	appUsersTarget = bulk.Target{
		Table:   "app_users",
		Columns: []string{"id", "username", "password_hash", "role", "resource_id", "is_active", "must_change_password"},
		Policy:  bulk.PolicyNone,
	}
	rolePermissionsTarget = bulk.Target{
		Table:        "role_permissions",
		Columns:      []string{"role", "page", "allowed"},
		Policy:       bulk.PolicyMerge,
		ConflictKeys: []string{"role", "page"},
	}
)
