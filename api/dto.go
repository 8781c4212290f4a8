/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The import envelope is
  validated with struct tags (go-playground/validator) before the payload
  reaches the engine.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - engine/payload.go: the shape of Data
*/
package api

import (
	"encoding/json"

	"github.com/warp/staffing-engine/engine"
)

// =============================================================================
// IMPORT
// =============================================================================

// ImportRequest is the body of POST /api/import.
//
//	{"type": "core_entities", "data": {"resources": [...], "roles": [...]}}
//	{"type": "staffing", "data": [...]}
type ImportRequest struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// ImportResponse is returned for a committed run.
type ImportResponse struct {
	RunID       string         `json:"run_id"`
	Type        string         `json:"type"`
	Message     string         `json:"message"`
	Warnings    []string       `json:"warnings"`
	RowsWritten map[string]int `json:"rows_written"`
}

func toImportResponse(res *engine.Result) ImportResponse {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ImportResponse{
		RunID:       res.RunID,
		Type:        res.Family,
		Message:     res.Message,
		Warnings:    warnings,
		RowsWritten: res.RowsWritten,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Types       []string `json:"types"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	// Reset empties every table before the scenario runs.
	Reset bool `json:"reset"`
}

// LoadScenarioResponse lists one result per step that committed.
type LoadScenarioResponse struct {
	Scenario string           `json:"scenario"`
	Steps    []ImportResponse `json:"steps"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
