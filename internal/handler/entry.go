package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/service"
)

// EntryHandler handles service log HTTP requests.
type EntryHandler struct {
	log *service.ServiceLogService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(log *service.ServiceLogService) *EntryHandler {
	return &EntryHandler{log: log}
}

// HandleCreate adds a manual service log entry. The worker is the caller
// unless an admin names another worker explicitly.
// POST /api/entries
// Request: {"contactId":1,"date":"2026-08-30","durationMinutes":45,"category":"Home Visit","description":"...","workerId":0}
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		ContactID       int64  `json:"contactId"`
		WorkerID        int64  `json:"workerId"`
		Date            string `json:"date"`
		DurationMinutes int    `json:"durationMinutes"`
		Category        string `json:"category"`
		Description     string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	workerID := user.ID
	if req.WorkerID != 0 && user.Elevated() {
		workerID = req.WorkerID
	}

	entry, err := h.log.Add(r.Context(), service.NewEntry{
		ContactID:       req.ContactID,
		WorkerID:        workerID,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Category:        req.Category,
		Description:     req.Description,
	})
	if err != nil {
		writeEntryError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"entry": toEntryDTO(entry)})
}

// HandleList returns entries visible to the caller, optionally filtered by
// contact, worker, or date.
// GET /api/entries?contactId=&workerId=&date=
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	ctx := r.Context()

	var (
		entries []domain.ServiceEntry
		err     error
	)
	q := r.URL.Query()
	contactID, _ := strconv.ParseInt(q.Get("contactId"), 10, 64)
	workerID, _ := strconv.ParseInt(q.Get("workerId"), 10, 64)
	date := q.Get("date")

	switch {
	case contactID != 0 && workerID != 0:
		entries, err = h.log.ListByContactAndWorker(ctx, contactID, workerID)
	case contactID != 0:
		entries, err = h.log.ListByContact(ctx, contactID)
	case workerID != 0:
		entries, err = h.log.ListByWorker(ctx, workerID)
	case date != "":
		entries, err = h.log.ListByDate(ctx, date)
	default:
		entries, err = h.log.ListAll(ctx)
	}
	if err != nil {
		slog.Error("list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	visible := service.VisibleEntries(entries, user)
	writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryDTOs(visible)})
}

// loadOwnedEntry fetches the entry at {id}, hiding other workers' entries
// from standard callers.
func (h *EntryHandler) loadOwnedEntry(w http.ResponseWriter, r *http.Request) *domain.ServiceEntry {
	user := UserFromContext(r.Context())

	entry, err := h.log.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found.")
			return nil
		}
		slog.Error("get entry", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return nil
	}

	if !user.Elevated() && entry.WorkerID != user.ID {
		writeError(w, http.StatusNotFound, "Entry not found.")
		return nil
	}
	return entry
}

// HandleGet returns a single entry.
// GET /api/entries/{id}
func (h *EntryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entry := h.loadOwnedEntry(w, r)
	if entry == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": toEntryDTO(entry)})
}

// HandleUpdate patches an entry; the full resulting record is re-validated.
// PUT /api/entries/{id}
// Request: any of {"date":"...","durationMinutes":...,"category":"...","description":"..."}
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	entry := h.loadOwnedEntry(w, r)
	if entry == nil {
		return
	}

	var req struct {
		Date            *string `json:"date"`
		DurationMinutes *int    `json:"durationMinutes"`
		Category        *string `json:"category"`
		Description     *string `json:"description"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	updated, err := h.log.Update(r.Context(), entry.ID, service.EntryPatch{
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Category:        req.Category,
		Description:     req.Description,
	})
	if err != nil {
		writeEntryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entry": toEntryDTO(updated)})
}

// HandleDelete removes an entry.
// DELETE /api/entries/{id}
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	entry := h.loadOwnedEntry(w, r)
	if entry == nil {
		return
	}

	if err := h.log.Delete(r.Context(), entry.ID); err != nil {
		slog.Error("delete entry", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeEntryError maps service log failures to HTTP responses. Validation
// rejections surface their human-readable reason.
func writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Entry not found.")
	default:
		slog.Error("service log operation", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
