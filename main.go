package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mferrant/casetrack/internal/config"
	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/handler"
	"github.com/mferrant/casetrack/internal/repository/sqlite"
	"github.com/mferrant/casetrack/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, logOpts)
	if cfg.LogFormat == "json" {
		logHandler = slog.NewJSONHandler(os.Stdout, logOpts)
	}
	slog.SetDefault(slog.New(logHandler))

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	clock := domain.SystemClock()
	limits := service.LogLimits{
		MaxSessionMinutes: cfg.MaxSessionMinutes,
		MaxDailyMinutes:   cfg.MaxDailyMinutes,
		RetentionDays:     cfg.RetentionDays,
	}

	authService := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost)
	logService := service.NewServiceLogService(db.Entries(), clock, limits)
	engine := service.NewSessionEngine(db.Sessions(), logService, clock, cfg.OrphanThreshold)
	metricsService := service.NewMetricsService(db.Entries(), clock)
	timerService := service.NewTimerService(engine, db.Sessions(), clock, cfg.SweepInterval)

	if err := seedAdminUser(context.Background(), authService); err != nil {
		slog.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	// Login attempts: 1 per second sustained, bursts of 5 per client IP.
	loginLimiter := service.NewTokenBucket(1, 5)
	defer loginLimiter.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Services{
		Auth:         authService,
		Engine:       engine,
		Log:          logService,
		Metrics:      metricsService,
		Timer:        timerService,
		Contacts:     db.Contacts(),
		Users:        db.Users(),
		LoginLimiter: loginLimiter,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go timerService.Run(ctx)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Leave a fresh last-activity stamp on anything still open so the next
	// boot can tell a clean shutdown from a crash.
	timerService.StampAll(shutdownCtx)
	slog.Info("server stopped")
}

// seedAdminUser provisions the initial elevated account from ADMIN_USERNAME
// and ADMIN_PASSWORD. Skipped when unset or already present.
func seedAdminUser(ctx context.Context, auth *service.AuthService) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	_, err := auth.Register(ctx, username, "Administrator", password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("admin user seeded", "username", username)
	return nil
}
