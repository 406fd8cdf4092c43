// Package server initializes and runs the application server. It opens the
// database, runs migrations, wires services, the realtime relay and the HTTP
// router, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/blob"
	"github.com/avolkov/paperstand/internal/server/config"
	"github.com/avolkov/paperstand/internal/server/httpapi"
	"github.com/avolkov/paperstand/internal/server/metrics"
	"github.com/avolkov/paperstand/internal/server/oauth"
	"github.com/avolkov/paperstand/internal/server/repositories/repomanager"
	"github.com/avolkov/paperstand/internal/server/services"
	"github.com/avolkov/paperstand/internal/server/ws"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger

	db  *sql.DB
	api *httpapi.Server
	hub *ws.Hub
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	presigner := blob.NewS3Presigner(blob.S3Config{
		User:         cfg.S3RootUser,
		Password:     cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Validity:     cfg.PresignValidityDuration,
	})

	userService := services.NewUserService(db, rm, presigner, cfg)
	paperService := services.NewPaperService(db, rm, presigner, cfg)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	hostname, _ := os.Hostname()
	hub := ws.NewHub()
	relay := ws.NewRelay(db, rm, paperService, hub, collector, logger)
	wsHandler := ws.NewHandler(relay, hub, []byte(cfg.SecretKey), hostname, collector, logger)

	google := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})

	api := httpapi.NewServer(cfg, logger, userService, paperService, relay, wsHandler, google, collector, registry)

	return &App{config: cfg, logger: logger, db: db, api: api, hub: hub}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "server error", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.hub.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}

	app.api.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
