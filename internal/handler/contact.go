package handler

import (
	"log/slog"
	"net/http"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/service"
)

// ContactHandler handles contact HTTP requests. Contacts are managed by the
// surrounding CRM; this surface is the minimal slice the tracking core
// needs.
type ContactHandler struct {
	contacts domain.ContactRepository
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contacts domain.ContactRepository) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// HandleList returns the contacts visible to the caller.
// GET /api/contacts
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	contacts, err := h.contacts.ListAll(r.Context())
	if err != nil {
		slog.Error("list contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	visible := service.VisibleContacts(contacts, user)
	dtos := make([]contactDTO, len(visible))
	for i := range visible {
		dtos[i] = toContactDTO(&visible[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": dtos})
}

// HandleCreate adds a contact and assigns it to a worker.
// POST /api/contacts (admin)
// Request: {"name":"...","assignedWorkerId":1}
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name"`
		AssignedWorkerID int64  `json:"assignedWorkerId"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Name == "" || req.AssignedWorkerID == 0 {
		writeError(w, http.StatusUnprocessableEntity, "Name and assigned worker are required.")
		return
	}

	contact := &domain.Contact{Name: req.Name, AssignedWorkerID: req.AssignedWorkerID}
	if err := h.contacts.Create(r.Context(), contact); err != nil {
		slog.Error("create contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"contact": toContactDTO(contact)})
}
