package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reactionrace/internal/config"
	"reactionrace/internal/db"
	"reactionrace/internal/logging"
	"reactionrace/internal/metrics"
	"reactionrace/internal/race"
	"reactionrace/internal/records"
	"reactionrace/internal/rooms"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logging.Setup(appCfg.LogLevel, appCfg.LogPretty); err != nil {
		return err
	}

	store := openStore(appCfg)
	defer store.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(promReg)

	writer := records.NewWriter(store, 1000)
	registry := rooms.NewRegistry(rooms.Config{
		EventBuffer: appCfg.EventBuffer,
		OnGameOver:  func(snap race.Snapshot) { archiveGame(writer, snap) },
	}, rec)

	writerCtx, stopWriter := context.WithCancel(context.Background())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writer.Run(writerCtx)
	}()

	srv := &Server{
		Rooms:     registry,
		Store:     store,
		Gatherer:  promReg,
		Limiter:   newIPLimiter(appCfg.ReactRateLimit, appCfg.ReactRateBurst),
		StaticDir: appCfg.StaticDir,
	}
	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "server").Msgf("listening on http://localhost:%s", appCfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		log.Info().Str("component", "server").Msg("shutting down")
	}

	// Closing the registry ends every SSE stream and WebSocket so Shutdown
	// is not held open by them.
	registry.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Str("component", "server").Err(err).Msg("http shutdown")
	}

	stopWriter()
	<-writerDone
	return runErr
}

// openStore picks the archive backend. A database that cannot be reached is
// logged and replaced by the in-memory store.
func openStore(cfg config.Config) records.Store {
	var (
		database *db.DB
		err      error
	)
	switch cfg.Archive() {
	case "postgres":
		database, err = db.Connect(cfg.DatabaseURL)
	case "sqlite":
		database, err = db.OpenSQLite(cfg.SQLitePath)
	default:
		log.Info().Str("component", "db").Msg("DATABASE_URL and SQLITE_PATH not set, archiving in memory")
		return records.NewMemoryStore()
	}
	if err != nil {
		log.Error().Str("component", "db").Err(err).Msg("failed to connect, archiving in memory")
		return records.NewMemoryStore()
	}
	if err := database.Migrate(); err != nil {
		log.Error().Str("component", "db").Err(err).Msg("migration failed")
	}
	return database
}

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)

	mux.Route("/api/racing", func(r chi.Router) {
		r.Post("/create", s.handleCreate)
		r.Post("/start/{id}", s.handleStart)
		r.Post("/trigger/{id}", s.handleTrigger)
		r.Post("/react", s.handleReact)
		r.Post("/finish/{id}", s.handleFinish)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/rooms", s.handleRooms)
		r.Get("/events/{id}", s.handleEvents)
		r.Get("/ws/{id}", s.handleWebSocket)
	})

	mux.Get("/api/leaderboard", s.handleLeaderboard)
	mux.Route("/api/database", func(r chi.Router) {
		r.Post("/save", s.handleSave)
		r.Get("/player/{name}", s.handlePlayerHistory)
		r.Get("/player/{name}/summary", s.handlePlayerSummary)
		r.Get("/stats", s.handleStats)
	})

	mux.Get("/health", s.handleHealth)
	gatherer := s.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if s.StaticDir != "" {
		mux.Handle("/*", http.FileServer(http.Dir(s.StaticDir)))
	}

	return mux
}
