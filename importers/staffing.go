package importers

import (
	"context"
	"sort"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/normalize"
)

// staffingInfoColumns are the non-date columns of a staffing sheet.
var staffingInfoColumns = map[string]bool{
	"resource": true, "project": true, "client": true,
	"email": true, "role": true, "horizontal": true, "location": true, "notes": true,
}

// Staffing imports the staffing family: one record per (resource, project)
// with one column per date holding the allocation percentage.
//
//	Resource | Project | Client | 2024-03-11 | 2024-03-12 | ...
//	a@x.com  | Apollo  | Acme   | 50         | 100        |
//
// Assignments are created once per pair; allocations merge per
// (assignment, date) so a rerun overwrites percentages in place.
type Staffing struct{}

func (Staffing) Family() string { return "staffing" }

func (Staffing) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}
	projects, err := loadProjects(ctx, run)
	if err != nil {
		return err
	}
	assignmentMap, err := run.Map(ctx, Assignments)
	if err != nil {
		return err
	}

	assignments := bulk.NewBatch(assignmentsTarget)
	allocations := bulk.NewBatch(allocationsTarget)
	ignored := make(map[string]bool)

	for i, rec := range p.Section(engine.DefaultSection) {
		ref := row(engine.DefaultSection, i)

		resource := rec.String("Resource")
		resourceID, reason := ppl.resolve(resource)
		if resourceID == "" {
			run.Warnf("%s: resource %q %s, skipped", ref, resource, reason)
			continue
		}
		project := rec.String("Project")
		projectID, reason := projects.resolve(project, rec.String("Client"))
		if projectID == "" {
			run.Warnf("%s: project %q %s, skipped", ref, project, reason)
			continue
		}

		// (resource, project) is unique in the store, so this never comes back empty.
		assignmentID, created := assignmentMap.ResolveOrCreate(resourceID, projectID)
		if created {
			assignments.Put(assignmentID, assignmentID, resourceID, projectID)
		}

		for _, label := range rec.Labels() {
			if staffingInfoColumns[normalize.Key(label)] {
				continue
			}
			date, ok := normalize.ToDate(label)
			if !ok {
				ignored[label] = true
				continue
			}
			cell := rec[label]
			if normalize.Text(cell) == "" {
				continue
			}
			pct, ok := normalize.ToDecimal(cell)
			if !ok || pct.IsNegative() || pct.GreaterThan(hundred) {
				run.Warnf("%s: allocation %q on %s is not a percentage between 0 and 100, skipped", ref, normalize.Text(cell), date)
				continue
			}

			key := assignmentID + "|" + date.String()
			if allocations.Put(key, run.NewID(), assignmentID, date, pct) {
				run.Warnf("%s: duplicate allocation on %s, last occurrence kept", ref, date)
			}
		}
	}

	if len(ignored) > 0 {
		labels := make([]string, 0, len(ignored))
		for l := range ignored {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			run.Warnf("column %q is not a date, ignored", l)
		}
	}

	return run.Flush(ctx, assignments, allocations)
}
