package handler

import (
	"net/http"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/service"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth         *service.AuthService
	Engine       *service.SessionEngine
	Log          *service.ServiceLogService
	Metrics      *service.MetricsService
	Timer        *service.TimerService
	Contacts     domain.ContactRepository
	Users        domain.UserRepository
	LoginLimiter *service.TokenBucket
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.CookieSecure)
	sessionHandler := NewSessionHandler(svc.Engine, svc.Timer, svc.Contacts)
	entryHandler := NewEntryHandler(svc.Log)
	metricsHandler := NewMetricsHandler(svc.Metrics, svc.Contacts, svc.Users)
	contactHandler := NewContactHandler(svc.Contacts)

	authed := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(svc.Auth, h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(svc.Auth, RequireAdmin(h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	login := http.Handler(http.HandlerFunc(authHandler.HandleLogin))
	if svc.LoginLimiter != nil {
		login = RateLimit(svc.LoginLimiter, login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("POST /api/auth/register", admin(authHandler.HandleRegister))
	mux.Handle("GET /api/auth/me", authed(authHandler.HandleMe))

	mux.Handle("POST /api/sessions/start", authed(sessionHandler.HandleStart))
	mux.Handle("POST /api/sessions/{id}/pause", authed(sessionHandler.HandlePause))
	mux.Handle("POST /api/sessions/{id}/resume", authed(sessionHandler.HandleResume))
	mux.Handle("POST /api/sessions/{id}/end", authed(sessionHandler.HandleEnd))
	mux.Handle("GET /api/sessions", authed(sessionHandler.HandleList))
	mux.Handle("GET /api/sessions/active", authed(sessionHandler.HandleActive))
	mux.Handle("GET /api/sessions/{id}/watch", authed(sessionHandler.HandleWatch))
	mux.Handle("POST /api/sessions/touch", authed(sessionHandler.HandleTouch))
	mux.Handle("POST /api/sessions/recover", admin(sessionHandler.HandleRecover))
	mux.Handle("POST /api/sessions/force-complete", admin(sessionHandler.HandleForceComplete))

	mux.Handle("POST /api/entries", authed(entryHandler.HandleCreate))
	mux.Handle("GET /api/entries", authed(entryHandler.HandleList))
	mux.Handle("GET /api/entries/{id}", authed(entryHandler.HandleGet))
	mux.Handle("PUT /api/entries/{id}", authed(entryHandler.HandleUpdate))
	mux.Handle("DELETE /api/entries/{id}", authed(entryHandler.HandleDelete))

	mux.Handle("GET /api/contacts", authed(contactHandler.HandleList))
	mux.Handle("POST /api/contacts", admin(contactHandler.HandleCreate))
	mux.Handle("GET /api/contacts/{id}/summary", authed(metricsHandler.HandleContactSummary))
	mux.Handle("GET /api/contacts/{id}/metrics", authed(metricsHandler.HandleUserMetrics))
	mux.Handle("GET /api/workers/top", admin(metricsHandler.HandleTopWorkers))
}
