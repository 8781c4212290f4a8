/*
core.go - core_entities importer

PURPOSE:
  Imports the reference data every other family points at, in dependency
  order within one transaction:

    1. dimension tables   horizontals, seniority_levels, project_statuses,
                          client_sectors, locations, leave_types
    2. calendar           (date, location) -> merge
    3. roles, clients     name -> insert new only
    4. resources          email -> merge; Skills column creates skills and links
    5. projects           (name, client) -> merge
    6. tutor edges        the Tutor column, applied after resources are written

SECTIONS:
  calendar:   Date, Location, Name, Type
  <dimension>: Value
  roles:      Name, Seniority Level, Daily Cost
  clients:    Name, Sector
  resources:  Name, Email, Role, Horizontal, Location, Hire Date, Seniority,
              Notes, Skills, Tutor
  projects:   Name, Client, Start Date, End Date, Budget, Realization %,
              Project Manager, Status, Notes

DUPLICATES:
  Two rows with the same natural key collapse into one; the later row wins
  and a warning names the duplicate.

SEE ALSO:
  - families.go: keys and policies
  - tutors.go: guarded tutor updates
*/
package importers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/normalize"
	"github.com/warp/staffing-engine/resolver"
)

// Core imports the core_entities family.
type Core struct{}

func (Core) Family() string { return "core_entities" }

func (Core) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	c, err := newCoreImport(ctx, run)
	if err != nil {
		return err
	}

	c.importDimensions(p)
	c.importCalendar(p.Section("calendar"))
	c.importRoles(p.Section("roles"))
	c.importClients(p.Section("clients"))
	edges := c.importResources(p.Section("resources"))
	c.importProjects(p.Section("projects"))

	if err := run.Flush(ctx, c.dimBatches...); err != nil {
		return err
	}
	if err := run.Flush(ctx,
		c.calendar, c.roles, c.clients,
		c.resources, c.implicitSkills, c.skillLinks,
		c.projects,
	); err != nil {
		return err
	}
	return applyTutors(ctx, run, c.people, edges)
}

type coreImport struct {
	run *engine.Run

	dimMaps    []*resolver.Map
	dimBatches []*bulk.Batch

	calendarMap *resolver.Map
	roleMap     *resolver.Map
	clientMap   *resolver.Map
	skillMap    *resolver.Map
	people      people
	projectRefs projectRefs

	calendar       *bulk.Batch
	roles          *bulk.Batch
	clients        *bulk.Batch
	resources      *bulk.Batch
	implicitSkills *bulk.Batch
	skillLinks     *bulk.Batch
	projects       *bulk.Batch
}

func newCoreImport(ctx context.Context, run *engine.Run) (*coreImport, error) {
	c := &coreImport{
		run:            run,
		calendar:       bulk.NewBatch(calendarTarget),
		roles:          bulk.NewBatch(rolesTarget),
		clients:        bulk.NewBatch(clientsTarget),
		resources:      bulk.NewBatch(resourcesTarget),
		implicitSkills: bulk.NewBatch(implicitSkillsTarget),
		skillLinks:     bulk.NewBatch(resourceSkillLinksTarget),
		projects:       bulk.NewBatch(projectsTarget),
	}

	for _, d := range Dimensions {
		m, err := run.Map(ctx, d.Family)
		if err != nil {
			return nil, err
		}
		c.dimMaps = append(c.dimMaps, m)
		c.dimBatches = append(c.dimBatches, bulk.NewBatch(d.Target))
	}

	maps, err := run.Maps.Preload(ctx, CalendarEvents, Roles, Clients, Skills)
	if err != nil {
		return nil, err
	}
	c.calendarMap, c.roleMap, c.clientMap, c.skillMap = maps[0], maps[1], maps[2], maps[3]

	if c.people, err = loadPeople(ctx, run); err != nil {
		return nil, err
	}
	if c.projectRefs, err = loadProjects(ctx, run); err != nil {
		return nil, err
	}
	return c, nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func (c *coreImport) importDimensions(p engine.Payload) {
	for i, d := range Dimensions {
		m, b := c.dimMaps[i], c.dimBatches[i]
		for j, rec := range p.Section(d.Section) {
			value := rec.String("Value")
			if value == "" {
				c.run.Warnf("%s: missing Value, skipped", row(d.Section, j))
				continue
			}
			// Existing values are left alone.
			id, created := m.ResolveOrCreate(value)
			if id == "" {
				c.run.Warnf("%s: %q matches several existing values, skipped", row(d.Section, j), value)
				continue
			}
			if created {
				b.Put(id, id, normalize.Presentable(value))
			}
		}
	}
}

func (c *coreImport) importCalendar(recs []engine.Record) {
	for i, rec := range recs {
		ref := row("calendar", i)
		date := rec.Date("Date")
		if date.IsZero() {
			c.run.Warnf("%s: missing or unreadable Date, skipped", ref)
			continue
		}
		name := rec.String("Name")
		if name == "" {
			c.run.Warnf("%s: missing Name, skipped", ref)
			continue
		}
		location := rec.String("Location")

		id, _ := c.calendarMap.ResolveOrCreate(date.String(), location)
		if id == "" {
			c.run.Warnf("%s: event on %s matches several existing events, skipped", ref, date)
			continue
		}
		if c.calendar.Put(id, id, name, date, upperOr(rec.String("Type"), "HOLIDAY"),
			optPresentable(location), normalize.Key(location)) {
			c.run.Warnf("%s: duplicate event on %s, last occurrence kept", ref, date)
		}
	}
}

// =============================================================================
// ROLES AND CLIENTS
// =============================================================================

func (c *coreImport) importRoles(recs []engine.Record) {
	for i, rec := range recs {
		ref := row("roles", i)
		name := rec.String("Name")
		if name == "" {
			c.run.Warnf("%s: missing Name, skipped", ref)
			continue
		}

		id, _ := c.roleMap.ResolveOrCreate(name)
		if id == "" {
			c.run.Warnf("%s: role %q matches several existing roles, skipped", ref, name)
			continue
		}
		if !c.roleMap.Created(id) {
			continue // roles that already exist are not updated
		}

		cost := rec.Decimal("Daily Cost")
		var expenses decimal.NullDecimal
		if cost.Valid {
			expenses = decimal.NullDecimal{Decimal: cost.Decimal.Mul(DailyExpenseRatio), Valid: true}
		}
		if c.roles.Put(id, id, normalize.Presentable(name), optPresentable(rec.String("Seniority Level")), cost, expenses) {
			c.run.Warnf("%s: duplicate role %q, last occurrence kept", ref, name)
		}
	}
}

func (c *coreImport) importClients(recs []engine.Record) {
	for i, rec := range recs {
		ref := row("clients", i)
		name := rec.String("Name")
		if name == "" {
			c.run.Warnf("%s: missing Name, skipped", ref)
			continue
		}

		id, _ := c.clientMap.ResolveOrCreate(name)
		if id == "" {
			c.run.Warnf("%s: client %q matches several existing clients, skipped", ref, name)
			continue
		}
		if !c.clientMap.Created(id) {
			continue
		}
		if c.clients.Put(id, id, normalize.Presentable(name), optPresentable(rec.String("Sector"))) {
			c.run.Warnf("%s: duplicate client %q, last occurrence kept", ref, name)
		}
	}
}

// =============================================================================
// RESOURCES
// =============================================================================

func (c *coreImport) importResources(recs []engine.Record) []tutorEdge {
	var edges []tutorEdge
	for i, rec := range recs {
		ref := row("resources", i)
		email := normEmail(rec.String("Email"))
		if email == "" {
			c.run.Warnf("%s: missing Email, skipped", ref)
			continue
		}
		name := rec.String("Name")
		if name == "" {
			c.run.Warnf("%s: missing Name, skipped", ref)
			continue
		}

		var roleID *string
		if role := rec.String("Role"); role != "" {
			id, ok := c.roleMap.Resolve(role)
			if !ok {
				c.run.Warnf("%s: role %q not found, skipped", ref, role)
				continue
			}
			roleID = &id
		}

		id, _ := c.people.byEmail.ResolveOrCreate(email)
		if id == "" {
			c.run.Warnf("%s: email %q matches several existing resources, skipped", ref, email)
			continue
		}
		c.people.byName.Register(id, name)

		replaced := c.resources.Put(id,
			id, normalize.Presentable(name), email, roleID,
			optPresentable(rec.String("Horizontal")),
			optPresentable(rec.String("Location")),
			rec.Date("Hire Date"),
			rec.OptInt("Seniority"),
			rec.OptString("Notes"),
		)
		if replaced {
			c.run.Warnf("%s: duplicate email %q, last occurrence kept", ref, email)
		}

		for _, skill := range rec.List("Skills") {
			sid, created := c.skillMap.ResolveOrCreate(skill)
			if sid == "" {
				c.run.Warnf("%s: skill %q matches several existing skills, link skipped", ref, skill)
				continue
			}
			if created {
				c.implicitSkills.Put(sid, sid, normalize.Presentable(skill), false)
			}
			c.skillLinks.Put(id+"|"+sid, id, sid)
		}

		if tutor := rec.String("Tutor"); tutor != "" {
			edges = append(edges, tutorEdge{row: ref, resourceID: id, tutorRef: tutor})
		}
	}
	return edges
}

// =============================================================================
// PROJECTS
// =============================================================================

func (c *coreImport) importProjects(recs []engine.Record) {
	for i, rec := range recs {
		ref := row("projects", i)
		name := rec.String("Name")
		if name == "" {
			c.run.Warnf("%s: missing Name, skipped", ref)
			continue
		}

		client := rec.String("Client")
		var clientID *string
		if client != "" {
			id, ok := c.clientMap.Resolve(client)
			if !ok {
				c.run.Warnf("%s: client %q not found, skipped", ref, client)
				continue
			}
			clientID = &id
		}

		id, _ := c.projectRefs.byPair.ResolveOrCreate(name, client)
		if id == "" {
			c.run.Warnf("%s: project %q matches several existing projects, skipped", ref, name)
			continue
		}
		c.projectRefs.byName.Register(id, name)
		clientKey := ""
		if clientID != nil {
			clientKey = *clientID
		}

		replaced := c.projects.Put(id,
			id, normalize.Presentable(name), clientID,
			rec.Date("Start Date"),
			rec.Date("End Date"),
			rec.Decimal("Budget"),
			rec.Decimal("Realization %"),
			rec.OptString("Project Manager"),
			optPresentable(rec.String("Status")),
			rec.OptString("Notes"),
			normalize.Key(name),
			clientKey,
		)
		if replaced {
			c.run.Warnf("%s: duplicate project %q, last occurrence kept", ref, name)
		}
	}
}
