/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built workbooks that populate the database with realistic
	staffing data for demos. A scenario is a list of imports run one after
	the other through the same engine, auth gate and policies as
	POST /api/import. Each step is its own run: a failing step leaves the
	steps before it committed.

AVAILABLE SCENARIOS:

	small-team:      core entities, skills, one week of staffing, users
	leave-season:    core entities, leave requests, tutor mapping
	hiring-pipeline: core entities, resource requests, interviews

USAGE VIA API:

	POST /api/scenarios/load
	Authorization: Bearer <token>
	{"scenario_id": "small-team", "reset": true}

ADDING NEW SCENARIOS:
 1. Write the payload constants
 2. Add to 'scenarios' with its steps in dependency order

SEE ALSO:
  - handlers.go: ResetDatabase
  - importers/: the families the steps name
*/
package api

import (
	"net/http"

	"github.com/warp/staffing-engine/auth"
	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioStep struct {
	family  string
	payload string
}

type scenario struct {
	id, name, description string
	steps                 []scenarioStep
}

func (s scenario) dto() ScenarioDTO {
	types := make([]string, len(s.steps))
	for i, st := range s.steps {
		types[i] = st.family
	}
	return ScenarioDTO{ID: s.id, Name: s.name, Description: s.description, Types: types}
}

var scenarios = []scenario{
	{
		id:          "small-team",
		name:        "Small Team",
		description: "Three people on two clients, with skills, a week of staffing and logins",
		steps: []scenarioStep{
			{"core_entities", teamCore},
			{"skills", teamSkills},
			{"staffing", teamStaffing},
			{"users_permissions", teamUsers},
		},
	},
	{
		id:          "leave-season",
		name:        "Leave Season",
		description: "Summer leave requests with approvers and a tutoring chain",
		steps: []scenarioStep{
			{"core_entities", teamCore},
			{"leaves", teamLeaves},
			{"tutor_mapping", teamTutors},
		},
	},
	{
		id:          "hiring-pipeline",
		name:        "Hiring Pipeline",
		description: "Open resource requests and the interviews run to fill them",
		steps: []scenarioStep{
			{"core_entities", teamCore},
			{"resource_requests", teamRequests},
			{"interviews", teamInterviews},
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.id == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO ENDPOINTS
// =============================================================================

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.dto()
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCurrentScenario returns the last scenario loaded, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.dto())
}

// LoadScenario runs every step of a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_scenario", "Unknown scenario", req.ScenarioID)
		return
	}

	ctx := r.Context()
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if _, err := h.Orchestrator.Authorize(ctx, token); err != nil {
		h.writeRunError(w, err)
		return
	}

	if req.Reset {
		if err := h.Store.Reset(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, "", "Failed to reset database", err)
			return
		}
	}

	resp := LoadScenarioResponse{Scenario: s.id, Steps: []ImportResponse{}}
	for _, step := range s.steps {
		payload, err := engine.ParsePayload([]byte(step.payload))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", "Bundled scenario is corrupt", err)
			return
		}
		res, err := h.Orchestrator.Run(ctx, engine.Request{Token: token, Family: step.family, Payload: payload})
		if err != nil {
			h.writeRunError(w, err)
			return
		}
		resp.Steps = append(resp.Steps, toImportResponse(res))
	}

	h.mu.Lock()
	h.currentScenario = s.id
	h.mu.Unlock()

	h.Log.Info("scenario loaded", "scenario", s.id, "steps", len(resp.Steps))
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SCENARIO PAYLOADS
// =============================================================================

const teamCore = `{
	"horizontals": [{"Value": "Digital"}, {"Value": "Data"}],
	"seniority_levels": [{"Value": "Junior"}, {"Value": "Mid"}, {"Value": "Senior"}],
	"project_statuses": [{"Value": "Active"}, {"Value": "On Hold"}],
	"client_sectors": [{"Value": "Banking"}, {"Value": "Retail"}],
	"locations": [{"Value": "Milano"}, {"Value": "Roma"}],
	"leave_types": [{"Value": "Ferie"}, {"Value": "Malattia"}, {"Value": "Permesso"}],
	"calendar": [
		{"Date": "2024-08-15", "Name": "Ferragosto"},
		{"Date": "2024-12-07", "Name": "Sant'Ambrogio", "Location": "Milano", "Type": "LOCAL_HOLIDAY"}
	],
	"roles": [
		{"Name": "Developer", "Seniority Level": "Mid", "Daily Cost": 380},
		{"Name": "Data Engineer", "Seniority Level": "Senior", "Daily Cost": 450},
		{"Name": "Project Manager", "Seniority Level": "Senior", "Daily Cost": 520}
	],
	"clients": [{"Name": "Banca Nord", "Sector": "Banking"}, {"Name": "Shopper", "Sector": "Retail"}],
	"resources": [
		{"Name": "Giulia Bianchi", "Email": "giulia.bianchi@warp.dev", "Role": "Project Manager",
		 "Horizontal": "Digital", "Location": "Milano", "Hire Date": "2019-02-01", "Seniority": 9},
		{"Name": "Marco Rossi", "Email": "marco.rossi@warp.dev", "Role": "Developer",
		 "Horizontal": "Digital", "Location": "Milano", "Hire Date": "2022-09-12", "Seniority": 4,
		 "Skills": "Go, PostgreSQL", "Tutor": "giulia.bianchi@warp.dev"},
		{"Name": "Sara Verdi", "Email": "sara.verdi@warp.dev", "Role": "Data Engineer",
		 "Horizontal": "Data", "Location": "Roma", "Hire Date": 44927, "Seniority": 6,
		 "Skills": "Python, Spark, PostgreSQL"}
	],
	"projects": [
		{"Name": "Core Banking Revamp", "Client": "Banca Nord", "Start Date": "2024-01-08",
		 "End Date": "2024-12-20", "Budget": 250000, "Realization %": 85, "Project Manager": "Giulia Bianchi", "Status": "Active"},
		{"Name": "Loyalty Analytics", "Client": "Shopper", "Start Date": "2024-03-01", "Budget": "120.000,00", "Status": "Active"}
	]
}`

const teamSkills = `{
	"skills": [
		{"Name": "Go", "Categories": "Backend, Languages", "Macro Categories": "Engineering"},
		{"Name": "Spark", "Categories": "Big Data", "Macro Categories": "Data"},
		{"Name": "AWS Solutions Architect", "Certification": "yes", "Categories": "Cloud", "Macro Categories": "Engineering, Data"}
	],
	"resource_skills": [
		{"Resource": "marco.rossi@warp.dev", "Skill": "Go", "Level": 4, "Acquired Date": "2022-10-01"},
		{"Resource": "sara.verdi@warp.dev", "Skill": "AWS Solutions Architect", "Level": 3,
		 "Acquired Date": "2023-05-10", "Expiration Date": "2026-05-10"}
	]
}`

const teamStaffing = `[
	{"Resource": "marco.rossi@warp.dev", "Project": "Core Banking Revamp",
	 "2024-09-02": 100, "2024-09-03": 100, "2024-09-04": 50, "2024-09-05": 50, "2024-09-06": 100},
	{"Resource": "Sara Verdi", "Project": "Loyalty Analytics", "Client": "Shopper",
	 "2024-09-02": 80, "2024-09-03": 80, "2024-09-04": 80, "2024-09-05": 80, "2024-09-06": 40},
	{"Resource": "giulia.bianchi@warp.dev", "Project": "Core Banking Revamp",
	 "2024-09-02": "20%", "2024-09-04": "20%", "2024-09-06": "20%"}
]`

const teamUsers = `{
	"users": [
		{"Username": "giulia", "Role": "MANAGER", "Resource": "giulia.bianchi@warp.dev"},
		{"Username": "marco", "Role": "USER", "Resource": "marco.rossi@warp.dev"},
		{"Username": "admin", "Role": "ADMIN"}
	],
	"permissions": [
		{"Role": "ADMIN", "Page": "/import", "Allowed": true},
		{"Role": "MANAGER", "Page": "/import", "Allowed": true},
		{"Role": "MANAGER", "Page": "/staffing", "Allowed": true},
		{"Role": "USER", "Page": "/staffing", "Allowed": false}
	]
}`

const teamLeaves = `[
	{"Resource": "marco.rossi@warp.dev", "Leave Type": "Ferie", "Start Date": "2024-08-05",
	 "End Date": "2024-08-23", "Status": "APPROVED", "Approvers": "giulia.bianchi@warp.dev"},
	{"Resource": "sara.verdi@warp.dev", "Leave Type": "Permesso", "Start Date": "2024-07-12",
	 "Half Day": "yes", "Approvers": "Giulia Bianchi"},
	{"Resource": "giulia.bianchi@warp.dev", "Leave Type": "Ferie", "Start Date": "12/08/2024",
	 "End Date": "16/08/2024", "Notes": "Coperta da Marco"}
]`

const teamTutors = `[
	{"Resource": "sara.verdi@warp.dev", "Tutor": "giulia.bianchi@warp.dev"}
]`

const teamRequests = `[
	{"Project": "Core Banking Revamp", "Client": "Banca Nord", "Role": "Developer",
	 "Requestor": "giulia.bianchi@warp.dev", "Start Date": "2024-10-01", "End Date": "2025-03-31",
	 "Commercial": "yes", "Notes": "Second backend developer"},
	{"Project": "Loyalty Analytics", "Role": "Data Engineer", "Requestor": "Giulia Bianchi",
	 "Start Date": "2024-10-14", "End Date": "2024-11-15"}
]`

const teamInterviews = `[
	{"Candidate Name": "Luca", "Candidate Surname": "Neri", "Role": "Developer", "Horizontal": "Digital",
	 "Interviewers": "giulia.bianchi@warp.dev, marco.rossi@warp.dev", "Interview Date": "2024-09-18",
	 "Status": "positive", "Feedback": "Strong Go fundamentals"},
	{"Candidate Name": "Elena", "Candidate Surname": "Gallo", "Birth Date": "1994-04-02", "Role": "Data Engineer",
	 "Interviewers": "sara.verdi@warp.dev", "Interview Date": 45560, "Status": "scheduled"}
]`
