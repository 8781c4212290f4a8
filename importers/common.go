package importers

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/normalize"
	"github.com/warp/staffing-engine/resolver"
)

// DailyExpenseRatio derives a role's daily expenses from its daily cost.
var DailyExpenseRatio = decimal.RequireFromString("0.035")

var hundred = decimal.NewFromInt(100)

// LongTermDays is the span beyond which a resource request is long-term.
const LongTermDays = 60

// IsLongTerm reports whether a request from start to end spans more than
// LongTermDays. The flag is stored at import time.
func IsLongTerm(start, end normalize.Date) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return normalize.DaysBetween(start, end) > LongTermDays
}

// Sectioned reports whether family reads named sections ("resources",
// "users", ...) rather than the single records section.
func Sectioned(family string) bool {
	switch family {
	case Core{}.Family(), SkillsTaxonomy{}.Family(), UsersPermissions{}.Family():
		return true
	}
	return false
}

// All returns every importer, ready for engine.NewRegistry.
func All() []engine.Importer {
	return []engine.Importer{
		Core{},
		Staffing{},
		ResourceRequests{},
		Interviews{},
		SkillsTaxonomy{},
		Leaves{},
		UsersPermissions{},
		TutorMapping{},
	}
}

// row names a record in warnings, 1-based.
func row(section string, i int) string {
	return fmt.Sprintf("%s row %d", section, i+1)
}

func optPresentable(s string) *string {
	if s = normalize.Presentable(s); s == "" {
		return nil
	}
	return &s
}

func optUpper(s string) *string {
	if s = strings.ToUpper(strings.TrimSpace(s)); s == "" {
		return nil
	}
	return &s
}

func upperOr(s, def string) string {
	if s = strings.ToUpper(strings.TrimSpace(s)); s == "" {
		return def
	}
	return s
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// REFERENCE RESOLUTION
// =============================================================================

// people resolves resource references by email first, then by name.
type people struct {
	byEmail *resolver.Map
	byName  *resolver.Map
}

func loadPeople(ctx context.Context, run *engine.Run) (people, error) {
	maps, err := run.Maps.Preload(ctx, ResourcesByEmail, ResourcesByName)
	if err != nil {
		return people{}, err
	}
	return people{byEmail: maps[0], byName: maps[1]}, nil
}

// resolve returns the resource id of ref, or a reason it has none.
func (p people) resolve(ref string) (string, string) {
	if strings.TrimSpace(ref) == "" {
		return "", "is empty"
	}
	if id, ok := p.byEmail.Resolve(normEmail(ref)); ok {
		return id, ""
	}
	if id, ok := p.byName.Resolve(ref); ok {
		return id, ""
	}
	if p.byName.Ambiguous(ref) {
		return "", "matches several resources by name"
	}
	return "", "not found"
}

// projectRefs resolves project references by (name, client), or by name alone
// when no client is given.
type projectRefs struct {
	byPair *resolver.Map
	byName *resolver.Map
}

func loadProjects(ctx context.Context, run *engine.Run) (projectRefs, error) {
	maps, err := run.Maps.Preload(ctx, Projects, ProjectsByName)
	if err != nil {
		return projectRefs{}, err
	}
	return projectRefs{byPair: maps[0], byName: maps[1]}, nil
}

func (p projectRefs) resolve(name, client string) (string, string) {
	if strings.TrimSpace(name) == "" {
		return "", "is empty"
	}
	if strings.TrimSpace(client) != "" {
		if id, ok := p.byPair.Resolve(name, client); ok {
			return id, ""
		}
		return "", fmt.Sprintf("not found for client %q", client)
	}
	if id, ok := p.byName.Resolve(name); ok {
		return id, ""
	}
	if p.byName.Ambiguous(name) {
		return "", "exists under several clients, add the Client column"
	}
	return "", "not found"
}
