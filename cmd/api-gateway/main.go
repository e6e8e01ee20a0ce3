package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"drone-survey-system/internal/application"
	"drone-survey-system/internal/config"
	"drone-survey-system/internal/infrastructure/logging"
	"drone-survey-system/internal/infrastructure/metrics"
	"drone-survey-system/internal/infrastructure/repositories"
	"drone-survey-system/internal/infrastructure/storage"
	"drone-survey-system/internal/ports"
	"drone-survey-system/internal/ports/api"
	"drone-survey-system/internal/ports/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Підключення до БД
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := repositories.InitializeSchema(ctx, db, cfg.Database.Driver); err != nil {
			return err
		}
	}

	// Створення репозиторіїв
	missionRepo := repositories.NewSQLMissionRepository(db)
	reportRepo := repositories.NewSQLReportRepository(db)

	m, err := metrics.New()
	if err != nil {
		return err
	}

	var archive ports.ReportArchive
	if cfg.Storage.Enabled {
		reportArchive, err := storage.NewReportArchive(ctx, storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Warn("report archive disabled", "error", err)
		} else {
			archive = reportArchive
		}
	}

	hub := ws.NewMissionEventHub(cfg.Server.AllowedOrigins, logger)
	defer hub.Close()

	missionService := application.NewMissionService(missionRepo, hub, m, logger)
	reportService := application.NewReportService(missionRepo, reportRepo, application.ReportServiceOptions{
		Archive:       archive,
		SitePrecision: cfg.Analytics.SitePrecision,
		StatsCacheTTL: cfg.Analytics.StatsCacheTTL,
		Metrics:       m,
		Logger:        logger,
	})

	missionHandler := api.NewMissionHandler(missionService, reportService, logger)
	reportHandler := api.NewReportHandler(reportService, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", api.UserIDHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.RateLimit.Enabled {
		r.Use(api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger).Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "unavailable"})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			// WebSocket живе довше за таймаут запиту
			r.Get("/ws/missions", hub.HandleConnection)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
				r.Use(api.RequireUser)

				missionHandler.RegisterRoutes(r)

				reportHandler.RegisterRoutes(r)
			})
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver, "archive", archive != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	logger.Info("server gracefully stopped")
	return nil
}
