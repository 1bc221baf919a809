package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

// SessionHandler handles session lifecycle HTTP requests.
type SessionHandler struct {
	engine   *service.SessionEngine
	timer    *service.TimerService
	contacts domain.ContactRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(engine *service.SessionEngine, timer *service.TimerService, contacts domain.ContactRepository) *SessionHandler {
	return &SessionHandler{engine: engine, timer: timer, contacts: contacts}
}

// HandleStart starts a session for the authenticated worker. Any session
// the worker already holds is auto-stopped by the engine.
// POST /api/sessions/start
// Request: {"contactId": 1}
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		ContactID int64 `json:"contactId"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if _, err := h.contacts.GetByID(r.Context(), req.ContactID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found.")
			return
		}
		slog.Error("look up contact", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	// The worker is always the caller; ownership is never taken from the
	// request body.
	session, err := h.engine.Start(r.Context(), req.ContactID, user.ID)
	if err != nil {
		slog.Error("start session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"session": toSessionDTO(session)})
}

// loadOwnedSession fetches the session at {id} and enforces that the caller
// may act on it. Sessions owned by others read as not-found for standard
// callers.
func (h *SessionHandler) loadOwnedSession(w http.ResponseWriter, r *http.Request) *domain.Session {
	user := UserFromContext(r.Context())

	session, err := h.engine.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found.")
			return nil
		}
		slog.Error("get session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return nil
	}

	if !user.Elevated() && session.WorkerID != user.ID {
		writeError(w, http.StatusNotFound, "Session not found.")
		return nil
	}
	return session
}

// HandlePause pauses an active session. Pausing a session in any other
// state is a no-op.
// POST /api/sessions/{id}/pause
func (h *SessionHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	session := h.loadOwnedSession(w, r)
	if session == nil {
		return
	}

	session, err := h.engine.Pause(r.Context(), session.ID)
	if err != nil {
		slog.Error("pause session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": toSessionDTO(session)})
}

// HandleResume resumes a paused session.
// POST /api/sessions/{id}/resume
func (h *SessionHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	session := h.loadOwnedSession(w, r)
	if session == nil {
		return
	}

	session, err := h.engine.Resume(r.Context(), session.ID)
	if err != nil {
		slog.Error("resume session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": toSessionDTO(session)})
}

// HandleEnd completes a session and synthesizes its service log entry.
// POST /api/sessions/{id}/end
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	session := h.loadOwnedSession(w, r)
	if session == nil {
		return
	}

	session, err := h.engine.End(r.Context(), session.ID)
	if err != nil {
		slog.Error("end session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": toSessionDTO(session)})
}

// HandleList returns the sessions visible to the caller.
// GET /api/sessions
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	sessions, err := h.engine.ListAll(r.Context())
	if err != nil {
		slog.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	visible := service.VisibleSessions(sessions, user)
	writeJSON(w, http.StatusOK, map[string]any{"sessions": toSessionDTOs(visible)})
}

// HandleActive returns the caller's unfinished session, if any, with its
// current elapsed time.
// GET /api/sessions/active
func (h *SessionHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	session, err := h.engine.ActiveForWorker(r.Context(), user.ID)
	if err != nil {
		slog.Error("get active session", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":        toSessionDTO(session),
		"elapsedSeconds": int(h.timer.Elapsed(session).Seconds()),
	})
}

// HandleTouch stamps last-activity on the caller's unfinished session. Sent
// as a beacon when the client is about to unload; diagnostic only.
// POST /api/sessions/touch
func (h *SessionHandler) HandleTouch(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.timer.StampActivity(r.Context(), user.ID); err != nil {
		slog.Error("stamp activity", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRecover runs an orphan-recovery sweep on demand.
// POST /api/sessions/recover (admin)
func (h *SessionHandler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	recovered, err := h.engine.RecoverOrphans(r.Context())
	if err != nil {
		slog.Error("recover orphans", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recovered": toSessionDTOs(recovered)})
}

// HandleForceComplete completes every unfinished session, optionally scoped
// to one worker.
// POST /api/sessions/force-complete (admin)
// Request: {"workerId": 0}
func (h *SessionHandler) HandleForceComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkerID int64 `json:"workerId"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
	}

	completed, err := h.engine.ForceCompleteAll(r.Context(), req.WorkerID)
	if err != nil {
		slog.Error("force complete sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": toSessionDTOs(completed)})
}

// timerSignals is the signal payload streamed to the timer display.
type timerSignals struct {
	SessionID      string `json:"sessionId"`
	Status         string `json:"status"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
}

// HandleWatch streams the session's elapsed time as datastar signals, one
// patch per second, until the session completes or the client disconnects.
// GET /api/sessions/{id}/watch
func (h *SessionHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	session := h.loadOwnedSession(w, r)
	if session == nil {
		return
	}

	sse := datastar.NewSSE(w, r)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if err := sse.MarshalAndPatchSignals(timerSignals{
			SessionID:      session.ID,
			Status:         session.Status,
			ElapsedSeconds: int(h.timer.Elapsed(session).Seconds()),
		}); err != nil {
			return
		}
		if session.Status == domain.SessionStatusCompleted {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		// Re-read so a pause, end, or recovery sweep from another tab is
		// reflected in the stream.
		refreshed, err := h.engine.GetByID(r.Context(), session.ID)
		if err != nil {
			return
		}
		session = refreshed
	}
}
