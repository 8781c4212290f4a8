package importers

import (
	"context"
	"fmt"

	"github.com/warp/staffing-engine/engine"
)

// TutorMapping imports the tutor_mapping family: records of (Resource, Tutor).
// Both sides must already be persisted resources.
type TutorMapping struct{}

func (TutorMapping) Family() string { return "tutor_mapping" }

func (TutorMapping) Import(ctx context.Context, run *engine.Run, p engine.Payload) error {
	ppl, err := loadPeople(ctx, run)
	if err != nil {
		return err
	}

	var edges []tutorEdge
	for i, rec := range p.Section(engine.DefaultSection) {
		ref := row(engine.DefaultSection, i)
		resource := rec.String("Resource")
		id, reason := ppl.resolve(resource)
		if id == "" {
			run.Warnf("%s: resource %q %s, skipped", ref, resource, reason)
			continue
		}
		tutor := rec.String("Tutor")
		if tutor == "" {
			run.Warnf("%s: missing Tutor, skipped", ref)
			continue
		}
		edges = append(edges, tutorEdge{row: ref, resourceID: id, tutorRef: tutor})
	}
	return applyTutors(ctx, run, ppl, edges)
}

// =============================================================================
// GUARDED TUTOR UPDATES
// =============================================================================

// tutorEdge asks for resourceID to be tutored by whoever tutorRef names.
type tutorEdge struct {
	row        string
	resourceID string
	tutorRef   string
}

// applyTutors updates tutor_id row by row, in edge order. A resource named as
// its own tutor gets a NULL tutor; an edge that would close a tutoring cycle
// of any length is rejected. Both cases warn.
func applyTutors(ctx context.Context, run *engine.Run, ppl people, edges []tutorEdge) error {
	if len(edges) == 0 {
		return nil
	}
	graph, err := loadTutorGraph(ctx, run)
	if err != nil {
		return err
	}

	for _, e := range edges {
		tutorID, reason := ppl.resolve(e.tutorRef)
		if tutorID == "" {
			run.Warnf("%s: tutor %q %s, skipped", e.row, e.tutorRef, reason)
			continue
		}

		if tutorID == e.resourceID {
			run.Warnf("%s: a resource cannot be its own tutor, tutor cleared", e.row)
			if _, err := run.Exec(ctx, `UPDATE resources SET tutor_id = NULL WHERE id = ?`, e.resourceID); err != nil {
				return fmt.Errorf("clear tutor of %s: %w", e.resourceID, err)
			}
			delete(graph, e.resourceID)
			continue
		}

		if closesCycle(graph, e.resourceID, tutorID) {
			run.Warnf("%s: tutor %q would create a tutoring cycle, skipped", e.row, e.tutorRef)
			continue
		}

		if _, err := run.Exec(ctx,
			`UPDATE resources SET tutor_id = ? WHERE id = ? AND id <> ?`,
			tutorID, e.resourceID, tutorID,
		); err != nil {
			return fmt.Errorf("set tutor of %s: %w", e.resourceID, err)
		}
		graph[e.resourceID] = tutorID
	}
	return nil
}

// loadTutorGraph reads every persisted resource -> tutor edge.
func loadTutorGraph(ctx context.Context, run *engine.Run) (map[string]string, error) {
	rows, err := run.Query(ctx, `SELECT id, tutor_id FROM resources WHERE tutor_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("load tutor edges: %w", err)
	}
	defer rows.Close()

	graph := make(map[string]string)
	for rows.Next() {
		var id, tutor string
		if err := rows.Scan(&id, &tutor); err != nil {
			return nil, err
		}
		graph[id] = tutor
	}
	return graph, rows.Err()
}

// closesCycle reports whether resource is reachable from tutor by following
// tutor edges, i.e. whether resource -> tutor would close a loop.
func closesCycle(graph map[string]string, resource, tutor string) bool {
	seen := make(map[string]bool)
	for cur := tutor; cur != ""; cur = graph[cur] {
		if cur == resource {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}
