package importers

import (
	"context"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
)

// Leaves imports the leaves family. Leave types must exist (core_entities
// leave_types section). Approvers are resolved like interviewers; a
// resource listed as its own approver is dropped from the approvers with a
// warning.
type Leaves struct{}

func (Leaves) Family() string { return "leaves" }

func (Leaves) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}
	leaveTypes, err := run.Map(ctx, LeaveTypes)
	if err != nil {
		return err
	}

	leaves := bulk.NewBatch(leaveRequestsTarget)
	approvers := bulk.NewBatch(leaveApproversTarget)

	for i, rec := range p.Section(engine.DefaultSection) {
		ref := row(engine.DefaultSection, i)

		resource := rec.String("Resource")
		resourceID, reason := ppl.resolve(resource)
		if resourceID == "" {
			run.Warnf("%s: resource %q %s, skipped", ref, resource, reason)
			continue
		}

		leaveType := rec.String("Leave Type")
		if leaveType == "" {
			run.Warnf("%s: missing Leave Type, skipped", ref)
			continue
		}
		typeID, ok := leaveTypes.Resolve(leaveType)
		if !ok {
			run.Warnf("%s: leave type %q not found, skipped", ref, leaveType)
			continue
		}

		start, end := rec.Date("Start Date"), rec.Date("End Date")
		if start.IsZero() {
			run.Warnf("%s: missing or unreadable Start Date, skipped", ref)
			continue
		}
		if end.IsZero() {
			end = start
		}

		id := run.NewID()
		leaves.Put(id,
			id, resourceID, typeID, start, end,
			upperOr(rec.String("Status"), "PENDING"),
			rec.Bool("Half Day"),
			rec.OptString("Notes"),
		)

		for _, who := range rec.List("Approvers") {
			aid, reason := ppl.resolve(who)
			if aid == "" {
				run.Warnf("%s: approver %q %s, dropped", ref, who, reason)
				continue
			}
			if aid == resourceID {
				run.Warnf("%s: %q cannot approve their own leave, dropped", ref, who)
				continue
			}
			approvers.Put(id+"|"+aid, id, aid)
		}
	}
	return run.Flush(ctx, leaves, approvers)
}
