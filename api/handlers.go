/*
handlers.go - HTTP API handlers for the staffing import engine

PURPOSE:
  Exposes the import engine via REST API. Handles HTTP request/response,
  JSON serialization and envelope validation, and delegates every write to
  engine.Orchestrator.

REQUEST FLOW:
  1. Decode the envelope {"type", "data"}
  2. Validate it (validator struct tags)
  3. Parse data into an engine.Payload
  4. Run the import with the bearer token of the request
  5. Serialize the result, or map the error to a status

  A body rejected in steps 1-3 is answered 401/403 rather than 400 when the
  credential is also bad.

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status:
  - 400: malformed envelope, unknown import type, invalid payload
  - 401: missing or invalid bearer token
  - 403: role not allowed to import
  - 500: store failures (the run was rolled back)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/warp/staffing-engine/auth"
	"github.com/warp/staffing-engine/engine"
	"github.com/warp/staffing-engine/logging"
)

// maxBodyBytes bounds an import body. Workbooks of a few thousand rows per
// sheet stay well below it.
const maxBodyBytes = 64 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the part of the relational store the handlers need directly.
type Store interface {
	Reset(ctx context.Context) error
	Counts(ctx context.Context) (map[string]int, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Orchestrator *engine.Orchestrator
	Store        Store
	Log          *logging.Logger

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(orch *engine.Orchestrator, st Store, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{
		Orchestrator: orch,
		Store:        st,
		Log:          log,
		validate:     validator.New(),
	}
}

// =============================================================================
// IMPORT ENDPOINTS
// =============================================================================

// Import runs one import.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	payload, err := engine.ParsePayload(req.Data)
	if err != nil {
		h.badRequest(w, r, "invalid_payload", "Invalid import payload", err)
		return
	}

	res, err := h.Orchestrator.Run(r.Context(), engine.Request{
		Token:   auth.BearerToken(r.Header.Get("Authorization")),
		Family:  req.Type,
		Payload: payload,
	})
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportResponse(res))
}

// ListTypes returns the registered import types.
// GET /api/import/types
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"types": h.Orchestrator.Families()})
}

// Stats returns the number of rows of every table.
// GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", "Failed to count rows", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetDatabase empties every table. Same gate as an import.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.Orchestrator.Authorize(ctx, auth.BearerToken(r.Header.Get("Authorization"))); err != nil {
		h.writeRunError(w, err)
		return
	}
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "", "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body into dst. On failure it writes the
// error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.badRequest(w, r, "invalid_body", "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
			}
			h.badRequest(w, r, "invalid_body", "Invalid request body", fields)
			return false
		}
		h.badRequest(w, r, "invalid_body", "Invalid request body", err)
		return false
	}
	return true
}

// badRequest writes a 400, unless the request's credential is rejected too,
// in which case the auth error wins.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, code, message string, details any) {
	if _, err := h.Orchestrator.Authorize(r.Context(), auth.BearerToken(r.Header.Get("Authorization"))); err != nil {
		h.writeRunError(w, err)
		return
	}
	writeError(w, http.StatusBadRequest, code, message, details)
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	status, code := runStatus(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error("import failed", "error", err)
	}
	writeError(w, status, code, "Import failed", err)
}

// runStatus maps an engine error to an HTTP status and error code.
func runStatus(err error) (int, string) {
	var authErr *engine.AuthError
	switch {
	case errors.As(err, &authErr):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, engine.ErrMissingToken):
		return http.StatusUnauthorized, "missing_token"
	case errors.Is(err, engine.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, engine.ErrUnknownFamily):
		return http.StatusBadRequest, "unknown_type"
	case errors.Is(err, engine.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	default:
		return http.StatusInternalServerError, "import_failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := ErrorResponse{Error: message, Code: code}
	switch d := details.(type) {
	case nil:
	case error:
		resp.Details = d.Error()
	default:
		resp.Details = d
	}
	writeJSON(w, status, resp)
}
