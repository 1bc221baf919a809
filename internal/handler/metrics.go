package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/service"
)

// MetricsHandler serves derived service metrics.
type MetricsHandler struct {
	metrics  *service.MetricsService
	contacts domain.ContactRepository
	users    domain.UserRepository
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(metrics *service.MetricsService, contacts domain.ContactRepository, users domain.UserRepository) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, contacts: contacts, users: users}
}

// visibleContact loads the contact at {id}, hiding unassigned contacts from
// standard callers.
func (h *MetricsHandler) visibleContact(w http.ResponseWriter, r *http.Request) *domain.Contact {
	user := UserFromContext(r.Context())

	contactID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact id.")
		return nil
	}

	contact, err := h.contacts.GetByID(r.Context(), contactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found.")
			return nil
		}
		slog.Error("get contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return nil
	}

	if !user.Elevated() && contact.AssignedWorkerID != user.ID {
		writeError(w, http.StatusNotFound, "Contact not found.")
		return nil
	}
	return contact
}

// HandleContactSummary returns the cross-worker rollup for a contact,
// decorated with display names.
// GET /api/contacts/{id}/summary
func (h *MetricsHandler) HandleContactSummary(w http.ResponseWriter, r *http.Request) {
	contact := h.visibleContact(w, r)
	if contact == nil {
		return
	}

	summary, err := h.metrics.ContactSummary(r.Context(), contact.ID)
	if err != nil {
		slog.Error("contact summary", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	lastWorkerName := ""
	if summary.LastWorkerID != 0 {
		if worker, err := h.users.GetByID(r.Context(), summary.LastWorkerID); err == nil {
			lastWorkerName = worker.DisplayName
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contact":        toContactDTO(contact),
		"summary":        summary,
		"lastWorkerName": lastWorkerName,
	})
}

// HandleUserMetrics returns one worker's metrics for a contact. Standard
// callers always get their own metrics; admins may name a worker.
// GET /api/contacts/{id}/metrics?workerId=
func (h *MetricsHandler) HandleUserMetrics(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	contact := h.visibleContact(w, r)
	if contact == nil {
		return
	}

	workerID := user.ID
	if requested, _ := strconv.ParseInt(r.URL.Query().Get("workerId"), 10, 64); requested != 0 && user.Elevated() {
		workerID = requested
	}

	metrics, err := h.metrics.UserMetrics(r.Context(), contact.ID, workerID)
	if err != nil {
		slog.Error("user metrics", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"metrics": metrics})
}

// HandleTopWorkers ranks workers by distinct service days.
// GET /api/workers/top?limit=N (admin)
func (h *MetricsHandler) HandleTopWorkers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 5
	}

	ranks, err := h.metrics.TopWorkers(r.Context(), limit)
	if err != nil {
		slog.Error("top workers", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	type rankedWorker struct {
		service.WorkerRank
		DisplayName string `json:"displayName"`
	}
	decorated := make([]rankedWorker, 0, len(ranks))
	for _, rank := range ranks {
		row := rankedWorker{WorkerRank: rank}
		if worker, err := h.users.GetByID(r.Context(), rank.WorkerID); err == nil {
			row.DisplayName = worker.DisplayName
		}
		decorated = append(decorated, row)
	}

	writeJSON(w, http.StatusOK, map[string]any{"workers": decorated})
}
