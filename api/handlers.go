/*
handlers.go - HTTP handlers for the attendance engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response and JSON
  serialization, delegating everything else to the domain packages.

ENDPOINTS:
  POST /api/timeclock/import         Upload a TXT/Excel export
  GET  /api/timeclock/records        List records (employeeId, from, to)
  POST /api/rules/simulate           What-if calculation for one day
  GET  /api/employees/{id}/balance   Current hour balance
  GET  /api/employees/{id}/movements Ledger history
  POST /api/compensations            Request compensation
  GET  /api/compensations            List requests (employeeId, status)
  POST /api/compensations/{id}/approve
  POST /api/compensations/{id}/reject

ERROR HANDLING:
  Domain errors are mapped by class: client errors -> 400, not-found -> 404,
  already-processed -> 409, everything else -> 500.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/hours-engine/clock"
	"github.com/warp/hours-engine/compensation"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/importer"
	"github.com/warp/hours-engine/ledger"
	"github.com/warp/hours-engine/parse"
	"github.com/warp/hours-engine/rules"
	"go.uber.org/zap"
)

// maxUploadBytes caps in-memory multipart parsing.
const maxUploadBytes = 32 << 20

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	Importer     *importer.Importer
	Ledger       *ledger.Ledger
	Engine       *rules.Engine
	Compensation *compensation.Service
	Records      importer.RecordStore
	Log          *zap.Logger
}

// NewHandler wires the handler. log may be nil.
func NewHandler(imp *importer.Importer, led *ledger.Ledger, engine *rules.Engine, comp *compensation.Service, records importer.RecordStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Importer:     imp,
		Ledger:       led,
		Engine:       engine,
		Compensation: comp,
		Records:      records,
		Log:          log,
	}
}

// =============================================================================
// IMPORT
// =============================================================================

func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("expected multipart form with a 'file' field"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("missing 'file' field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	summary, err := h.Importer.ImportFile(r.Context(), header.Filename, data)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	employeeID := clock.EmployeeID(r.URL.Query().Get("employeeId"))
	if employeeID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("employeeId is required"))
		return
	}
	from, to := queryRange(r)

	stored, err := h.Records.List(r.Context(), employeeID, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]RecordResponse, 0, len(stored))
	for _, sr := range stored {
		out = append(out, RecordResponse{
			EmployeeID:   string(sr.Record.EmployeeID),
			Date:         sr.Record.Date,
			Holiday:      sr.Record.Holiday,
			Weekend:      sr.Record.Weekend,
			SourceFile:   sr.Record.SourceFile,
			TotalHours:   sr.Result.TotalHours,
			ExtraHours:   sr.Result.ExtraHours,
			NightHours:   sr.Result.NightHours,
			HolidayHours: sr.Result.HolidayHours,
			AppliedRules: sr.Result.AppliedRules,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// SIMULATION
// =============================================================================

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	date, err := parse.Date(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	cfg, err := factory.ParseConfig(req.Config)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	rec := clock.Record{
		EmployeeID: clock.EmployeeID(req.EmployeeID),
		Date:       clock.Day(date),
		Punches:    parse.BuildPunches(req.Times, date),
		Holiday:    req.Holiday,
		Weekend:    req.Weekend,
	}
	result := h.Engine.Simulate(rec, cfg, req.RuleCode)
	h.writeJSON(w, http.StatusOK, result)
}

// ListRules reports the registered strategy codes in priority order.
func (h *Handler) ListRules(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"rules": h.Engine.Codes()})
}

// =============================================================================
// BALANCES
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := clock.EmployeeID(chi.URLParam(r, "id"))

	bal, err := h.Ledger.GetBalance(r.Context(), employeeID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBalanceResponse(bal))
}

func (h *Handler) GetMovements(w http.ResponseWriter, r *http.Request) {
	employeeID := clock.EmployeeID(chi.URLParam(r, "id"))
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n >= 0 {
			limit = n
		}
	}

	moves, err := h.Ledger.History(r.Context(), employeeID, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMovementResponses(moves))
}

// =============================================================================
// COMPENSATION
// =============================================================================

func (h *Handler) CreateCompensation(w http.ResponseWriter, r *http.Request) {
	var req CreateCompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parse.Date(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	created, err := h.Compensation.Create(r.Context(), clock.EmployeeID(req.EmployeeID), req.Hours, date, req.Reason, req.EmployeeID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCompensationResponse(created))
}

func (h *Handler) ListCompensations(w http.ResponseWriter, r *http.Request) {
	employeeID := clock.EmployeeID(r.URL.Query().Get("employeeId"))
	status := compensation.Status(r.URL.Query().Get("status"))

	list, err := h.Compensation.List(r.Context(), employeeID, status)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	out := make([]CompensationResponse, 0, len(list))
	for _, req := range list {
		out = append(out, toCompensationResponse(req))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ApproveCompensation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	approved, err := h.Compensation.Approve(r.Context(), id, r.Header.Get("X-Actor"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCompensationResponse(approved))
}

func (h *Handler) RejectCompensation(w http.ResponseWriter, r *http.Request) {
	var req RejectCompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	rejected, err := h.Compensation.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason, r.Header.Get("X-Actor"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCompensationResponse(rejected))
}

// =============================================================================
// HELPERS
// =============================================================================

func queryRange(r *http.Request) (from, to time.Time) {
	from = time.Time{}
	to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if q := r.URL.Query().Get("from"); q != "" {
		if d, err := parse.Date(q); err == nil {
			from = d
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		if d, err := parse.Date(q); err == nil {
			to = d
		}
	}
	return from, to
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Warn("response encoding failed", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDomainError maps a domain error to an HTTP status by class.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case clock.IsNotFound(err) || errors.Is(err, compensation.ErrRequestNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, compensation.ErrAlreadyProcessed):
		h.writeError(w, http.StatusConflict, err)
	case clock.IsClientError(err) || errors.Is(err, importer.ErrUnsupportedFormat):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.Log.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err)
	}
}
