package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PortNumber53/depenados/internal/config"
	"github.com/PortNumber53/depenados/internal/handlers"
	"github.com/PortNumber53/depenados/internal/logging"
	"github.com/PortNumber53/depenados/internal/media"
	"github.com/PortNumber53/depenados/internal/middleware"
	"github.com/PortNumber53/depenados/internal/workers"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(defaultDeps()); err != nil {
		log.Fatal(err)
	}
}

type deps struct {
	getenv         func(string) string
	openDB         func(driverName, dataSourceName string) (*sql.DB, error)
	migrateUp      func(*sql.DB) error
	listenAndServe func(*http.Server) error
	newLogger      func(level string) (*zap.Logger, error)
	stopCh         chan os.Signal
	notify         func(c chan<- os.Signal, sig ...os.Signal)
}

func defaultDeps() deps {
	return deps{
		getenv:         os.Getenv,
		openDB:         sql.Open,
		migrateUp:      migrateUp,
		listenAndServe: func(s *http.Server) error { return s.ListenAndServe() },
		newLogger:      logging.New,
		notify:         signal.Notify,
	}
}

func run(d deps) error {
	if d.getenv == nil {
		d.getenv = os.Getenv
	}
	cfg := config.FromEnv(d.getenv)
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if d.openDB == nil {
		return errors.New("openDB dependency is required")
	}
	if d.listenAndServe == nil {
		return errors.New("listenAndServe dependency is required")
	}
	if d.newLogger == nil {
		d.newLogger = logging.New
	}

	logger, err := d.newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := d.openDB("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if d.migrateUp != nil {
		if err := d.migrateUp(db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info("database is up-to-date")
	}

	// Root context for background workers and graceful shutdown
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uploader := media.NewClient(cfg.Media)
	if !uploader.Configured() {
		logger.Warn("media host credentials missing; uploads will be rejected")
	}

	h := handlers.New(db,
		handlers.WithLogger(logger.Named("api")),
		handlers.WithUploader(uploader, cfg.Media.Folder),
	)
	handler := withMiddleware(buildRouter(h), logger, cfg.CORSAllowedOrigins)

	// Read and write timeouts are left unset: the counters feed keeps its
	// connection open past any fixed deadline.
	srv := &http.Server{
		Handler:           handler,
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := d.stopCh
	if stop == nil {
		stop = make(chan os.Signal, 1)
		if d.notify != nil {
			d.notify(stop, os.Interrupt, syscall.SIGTERM)
		}
	}

	startEventStatusWorkerIfEnabled(rootCtx, db, logger, cfg.EventStatusWorker)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		serveErr <- d.listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stop:
		logger.Info("shutting down server")
		cancel()
		ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("server shutdown error", zap.Error(err))
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	logger.Info("server stopped")
	return nil
}

func buildRouter(h *handlers.Handler) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoutes(h, r)
	return r
}

// withMiddleware wraps the whole router, unmatched routes included, with
// panic recovery, request logging and CORS. The API has no cookies or auth
// headers, so credentials stay off.
func withMiddleware(r *mux.Router, logger *zap.Logger, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})
	var h http.Handler = c.Handler(r)
	h = middleware.RequestLogger(logger.Named("http"))(h)
	return middleware.Recoverer(logger)(h)
}

// startEventStatusWorkerIfEnabled launches the worker and returns a channel
// closed when it exits, or nil when the worker is disabled.
func startEventStatusWorkerIfEnabled(ctx context.Context, db *sql.DB, logger *zap.Logger, cfg config.EventStatusWorkerConfig) <-chan struct{} {
	if !cfg.Enabled {
		logger.Info("event status worker disabled")
		return nil
	}
	w := &workers.EventStatusWorker{
		DB:         db,
		Log:        logger.Named("event-status"),
		GraceHours: cfg.GraceHours,
		Interval:   cfg.Interval,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()
	return done
}

func migrateUp(db *sql.DB) error {
	if db == nil {
		return errors.New("migrateUp: nil db")
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://db/migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
