package importers

import (
	"context"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
)

// ResourceRequests imports the resource_requests family. Requests are an
// append-only log: every record becomes a new row with a fresh id.
//
// is_long_term is derived from the date span at import time and stored; it
// is not recomputed if the dates are edited later.
type ResourceRequests struct{}

func (ResourceRequests) Family() string { return "resource_requests" }

func (ResourceRequests) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	projects, err := loadProjects(ctx, run)
	if err != nil {
		return err
	}
	roles, err := run.Map(ctx, Roles)
	if err != nil {
		return err
	}
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}

	requests := bulk.NewBatch(resourceRequestsTarget)
	for i, rec := range p.Section(engine.DefaultSection) {
		ref := row(engine.DefaultSection, i)

		project := rec.String("Project")
		projectID, reason := projects.resolve(project, rec.String("Client"))
		if projectID == "" {
			run.Warnf("%s: project %q %s, skipped", ref, project, reason)
			continue
		}

		role := rec.String("Role")
		if role == "" {
			run.Warnf("%s: missing Role, skipped", ref)
			continue
		}
		roleID, ok := roles.Resolve(role)
		if !ok {
			run.Warnf("%s: role %q not found, skipped", ref, role)
			continue
		}

		var requestorID *string
		if requestor := rec.String("Requestor"); requestor != "" {
			id, reason := ppl.resolve(requestor)
			if id == "" {
				run.Warnf("%s: requestor %q %s, skipped", ref, requestor, reason)
				continue
			}
			requestorID = &id
		}

		start, end := rec.Date("Start Date"), rec.Date("End Date")
		if start.IsZero() || end.IsZero() {
			run.Warnf("%s: missing or unreadable Start Date/End Date, skipped", ref)
			continue
		}

		id := run.NewID()
		requests.Put(id,
			id, projectID, roleID, requestorID, start, end,
			IsLongTerm(start, end),
			rec.Bool("Commercial"),
			upperOr(rec.String("Status"), "ACTIVE"),
			rec.OptString("Notes"),
		)
	}
	return run.Flush(ctx, requests)
}
