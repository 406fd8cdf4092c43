package httpapi

import (
	"context"
	"net/http"

	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/blob"
	"github.com/avolkov/paperstand/internal/server/config"
	"github.com/avolkov/paperstand/internal/server/metrics"
	"github.com/avolkov/paperstand/internal/server/models"
	"github.com/avolkov/paperstand/internal/server/oauth"
	"github.com/avolkov/paperstand/internal/server/services"
	"github.com/avolkov/paperstand/internal/server/ws"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// CodeExchanger swaps an OAuth authorization code for a provider profile.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*oauth.Profile, error)
}

// Server bundles the handlers and their dependencies behind one router.
type Server struct {
	cfg       *config.Config
	log       logging.Logger
	users     *services.UserService
	papers    *services.PaperService
	relay     *ws.Relay
	wsHandler http.Handler
	google    CodeExchanger
	collector *metrics.Collector
	gatherer  prometheus.Gatherer

	authLimiter *RateLimiter
}

func NewServer(
	cfg *config.Config,
	log logging.Logger,
	users *services.UserService,
	papers *services.PaperService,
	relay *ws.Relay,
	wsHandler http.Handler,
	google CodeExchanger,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		cfg:         cfg,
		log:         log,
		users:       users,
		papers:      papers,
		relay:       relay,
		wsHandler:   wsHandler,
		google:      google,
		collector:   collector,
		gatherer:    gatherer,
		authLimiter: NewRateLimiter(cfg.AuthRatePerMinute),
	}
}

// Close stops background goroutines owned by the server.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// Routes assembles the full HTTP surface.
func (s *Server) Routes() http.Handler {
	secret := []byte(s.cfg.SecretKey)

	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(RequestLogger(s.log, s.collector))

	r.Get("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	if s.wsHandler != nil {
		r.Handle("/ws", s.wsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Unauthenticated auth endpoints, rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(s.authLimiter.Middleware())
			r.Post("/auth/signup", s.handleSignup)
			r.Post("/auth/login", s.handleLogin)
			r.Post("/auth/refresh", s.handleRefresh)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/google", s.handleGoogleCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(secret, s.log))

			r.Post("/auth/modify/username", s.handleChangeUsername)
			r.Post("/auth/modify/password", s.handleChangePassword)
			r.Post("/auth/modify/language", s.handleChangeLanguage)

			r.Post("/upload/request", s.handleUploadRequest)
			r.Get("/papers/{paperID}/contentUrl", s.handleContentURLs)
			r.Post("/library/load", s.handleLibraryLoad)

			r.Post("/profile/upload", s.handleProfileUpload)
			r.Post("/profile/confirm", s.handleProfileConfirm)
		})
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(RequireWorkerKey(s.cfg.WorkerKey, s.log))
		r.Post("/papers/status", s.handleWorkerStatus)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, map[string]any{"status": "ok"})
}

// --- JSON projections ---

func paperJSON(p *models.Paper) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"userId":        p.UserID,
		"title":         p.Title,
		"fileKey":       p.FileKey,
		"status":        p.Status,
		"summaryKey":    p.SummaryKey,
		"structuredKey": p.StructuredKey,
		"errorMessage":  p.ErrorMessage,
		"uploadedAt":    p.UploadedAt,
		"lastUpdated":   p.UpdatedAt,
	}
}

func credentialJSON(c *blob.UploadCredential) map[string]any {
	return map[string]any{
		"url":       c.URL,
		"method":    c.Method,
		"fields":    c.Fields,
		"key":       c.Key,
		"expiresIn": int64(c.ExpiresIn.Seconds()),
	}
}
