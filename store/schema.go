package store

import (
	"context"
	"fmt"
)

// Tables lists every table in dependency order: a table only references
// tables listed before it.
var Tables = []string{
	"horizontals",
	"seniority_levels",
	"project_statuses",
	"client_sectors",
	"locations",
	"leave_types",
	"calendar_events",
	"roles",
	"clients",
	"resources",
	"skills",
	"skill_categories",
	"skill_macro_categories",
	"skill_category_map",
	"skill_category_macro_map",
	"resource_skills",
	"projects",
	"assignments",
	"allocations",
	"resource_requests",
	"interviews",
	"interview_interviewers",
	"leave_requests",
	"leave_request_approvers",
	"app_users",
	"role_permissions",
}

// schema is written in the subset of SQL shared by SQLite and PostgreSQL.
// Dates are stored as YYYY-MM-DD text, money and percentages as NUMERIC.
// The *_key columns hold normalized natural keys, with an empty string for
// "no location" or "no client", so the unique constraints cover those rows.
var schema = []string{
	// Configuration / dimension tables
	`CREATE TABLE IF NOT EXISTS horizontals (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS seniority_levels (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS project_statuses (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS client_sectors (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL UNIQUE
	)`,

	// Calendar. (date, location) is enforced through the resolver because
	// location is NULL for global holidays.
	`CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'HOLIDAY',
		location TEXT,
		location_key TEXT NOT NULL DEFAULT '',
		UNIQUE (date, location_key)
	)`,

	// Reference entities
	`CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		seniority_level TEXT,
		daily_cost NUMERIC(12,2),
		daily_expenses NUMERIC(12,4)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		sector TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role_id TEXT REFERENCES roles(id) ON DELETE SET NULL,
		horizontal TEXT,
		location TEXT,
		hire_date TEXT,
		work_seniority INTEGER,
		notes TEXT,
		tutor_id TEXT REFERENCES resources(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_tutor ON resources(tutor_id)`,

	// Skills taxonomy
	`CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		is_certification BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS skill_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS skill_macro_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS skill_category_map (
		skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
		category_id TEXT NOT NULL REFERENCES skill_categories(id) ON DELETE CASCADE,
		PRIMARY KEY (skill_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS skill_category_macro_map (
		category_id TEXT NOT NULL REFERENCES skill_categories(id) ON DELETE CASCADE,
		macro_category_id TEXT NOT NULL REFERENCES skill_macro_categories(id) ON DELETE CASCADE,
		PRIMARY KEY (category_id, macro_category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS resource_skills (
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
		level INTEGER,
		acquisition_date TEXT,
		expiration_date TEXT,
		PRIMARY KEY (resource_id, skill_id)
	)`,

	// Projects and staffing
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client_id TEXT REFERENCES clients(id) ON DELETE SET NULL,
		start_date TEXT,
		end_date TEXT,
		budget NUMERIC(14,2),
		realization_percentage NUMERIC(5,2),
		project_manager TEXT,
		status TEXT,
		notes TEXT,
		name_key TEXT NOT NULL,
		client_key TEXT NOT NULL DEFAULT '',
		UNIQUE (name_key, client_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		UNIQUE (resource_id, project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		allocation_date TEXT NOT NULL,
		percentage NUMERIC(5,2) NOT NULL,
		UNIQUE (assignment_id, allocation_date)
	)`,

	// Append-only logs
	`CREATE TABLE IF NOT EXISTS resource_requests (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		role_id TEXT NOT NULL REFERENCES roles(id),
		requestor_id TEXT REFERENCES resources(id) ON DELETE SET NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_long_term BOOLEAN NOT NULL DEFAULT FALSE,
		is_commercial BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		notes TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		candidate_name TEXT NOT NULL,
		candidate_surname TEXT NOT NULL,
		birth_date TEXT,
		role_id TEXT REFERENCES roles(id) ON DELETE SET NULL,
		horizontal TEXT,
		interview_date TEXT,
		feedback TEXT,
		status TEXT,
		notes TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS interview_interviewers (
		interview_id TEXT NOT NULL REFERENCES interviews(id) ON DELETE CASCADE,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		PRIMARY KEY (interview_id, resource_id)
	)`,
	`CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		leave_type_id TEXT NOT NULL REFERENCES leave_types(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		is_half_day BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leave_requests_resource ON leave_requests(resource_id, start_date)`,
	`CREATE TABLE IF NOT EXISTS leave_request_approvers (
		leave_request_id TEXT NOT NULL REFERENCES leave_requests(id) ON DELETE CASCADE,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		PRIMARY KEY (leave_request_id, resource_id)
	)`,

	// Access control
	`CREATE TABLE IF NOT EXISTS app_users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		resource_id TEXT REFERENCES resources(id) ON DELETE SET NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		must_change_password BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		role TEXT NOT NULL,
		page TEXT NOT NULL,
		allowed BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (role, page)
	)`,
}

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
