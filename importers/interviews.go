package importers

import (
	"context"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/normalize"
)

// Interviews imports the interviews family. Each record is a new interview;
// the Interviewers column lists resources by email or name. An interviewer
// that does not resolve is dropped from that interview with a warning, the
// interview itself is kept.
type Interviews struct{}

func (Interviews) Family() string { return "interviews" }

func (Interviews) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	roles, err := run.Map(ctx, Roles)
	if err != nil {
		return err
	}
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}

	interviews := bulk.NewBatch(interviewsTarget)
	interviewers := bulk.NewBatch(interviewersTarget)

	for i, rec := range p.Section(engine.DefaultSection) {
		ref := row(engine.DefaultSection, i)

		name, surname := rec.String("Candidate Name"), rec.String("Candidate Surname")
		if name == "" || surname == "" {
			run.Warnf("%s: missing Candidate Name/Candidate Surname, skipped", ref)
			continue
		}

		var roleID *string
		if role := rec.String("Role"); role != "" {
			id, ok := roles.Resolve(role)
			if !ok {
				run.Warnf("%s: role %q not found, skipped", ref, role)
				continue
			}
			roleID = &id
		}

		id := run.NewID()
		interviews.Put(id,
			id, normalize.Presentable(name), normalize.Presentable(surname),
			rec.Date("Birth Date"),
			roleID,
			optPresentable(rec.String("Horizontal")),
			rec.Date("Interview Date"),
			rec.OptString("Feedback"),
			optUpper(rec.String("Status")),
			rec.OptString("Notes"),
		)

		for _, who := range rec.List("Interviewers") {
			rid, reason := ppl.resolve(who)
			if rid == "" {
				run.Warnf("%s: interviewer %q %s, dropped", ref, who, reason)
				continue
			}
			interviewers.Put(id+"|"+rid, id, rid)
		}
	}
	return run.Flush(ctx, interviews, interviewers)
}
