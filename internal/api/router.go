package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-frontdesk/internal/audit"
	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

// HistoryReader reads back recorded appointment events, newest first.
type HistoryReader interface {
	History(ctx context.Context, appointmentID int64, limit int) ([]audit.Event, error)
}

type RouterConfig struct {
	StoreBaseURL  string
	HTTPClient    *http.Client
	Location      *time.Location
	PageSize      int
	AllowOverride bool
	Locker        redisclient.Locker
	Recorder      audit.Recorder
	History       HistoryReader // nil when no audit table is configured
	Logger        zerolog.Logger
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Env           string
	Version       string
	Now           func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Locker == nil {
		cfg.Locker = workspace.NewLocalLocker()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = audit.NewLogRecorder(cfg.Logger)
	}

	h := &handlers{
		cfg:     cfg,
		matcher: language.NewMatcher(supportedLanguages),
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	pinger := store.NewClient(cfg.StoreBaseURL, nil, store.WithHTTPClient(cfg.HTTPClient))
	health := NewHealthHandler(pinger, cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/views/today", h.todayView)
		r.Get("/views/all", h.allView)
		r.Get("/views/dashboard", h.dashboardView)

		r.Post("/appointments", h.createAppointment)
		r.Get("/appointments/{id}", h.getAppointment)
		r.Post("/appointments/{id}/arrival", h.registerArrival)
		r.Put("/appointments/{id}/status", h.transitionStatus)
		r.Patch("/appointments/{id}", h.editAppointment)
		r.Delete("/appointments/{id}", h.deleteAppointment)
		r.Get("/appointments/{id}/history", h.history)

		r.Get("/statistics", h.statistics)
		r.Get("/patients/{id}", h.getPatient)
		r.Get("/patients/{id}/prediction", h.prediction)
	})

	return r
}
