// Package main is the entry point for the Maya backend: the web API and the
// interaction dispatch engine share one process, one cache and one database.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mayabot/maya/internal/bot"
	"github.com/mayabot/maya/internal/cache"
	"github.com/mayabot/maya/internal/config"
	"github.com/mayabot/maya/internal/database"
	"github.com/mayabot/maya/internal/discord"
	"github.com/mayabot/maya/internal/handler"
	"github.com/mayabot/maya/internal/lichess"
	"github.com/mayabot/maya/internal/middleware"
	"github.com/mayabot/maya/internal/repository"
	"github.com/mayabot/maya/internal/service"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Starting Maya backend",
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
	)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	redis, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// The invalidation bus fans local cache evictions out to every other
	// process sharing the database.
	bus := cache.NewBus(redis, logger)
	dataCache := cache.New("data", bus, logger)

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	go func() {
		if err := bus.Run(busCtx, dataCache.InvalidateLocal); err != nil && busCtx.Err() == nil {
			logger.Error("invalidation bus stopped", slog.String("error", err.Error()))
		}
	}()

	pool := db.Pool()
	discordClient := discord.NewClient(cfg.Discord, cfg.Server.BaseWebURL)
	lichessClient := lichess.NewClient(cfg.Lichess, cfg.Server.BaseWebURL)

	data := service.NewDataService(
		dataCache,
		repository.NewSessionRepository(pool),
		repository.NewAccountRepository(pool),
		repository.NewConnectionRepository(pool),
		discordClient,
		logger,
	)

	registry := bot.NewRegistry()
	if err := registry.Register(bot.BuiltinCommands()...); err != nil {
		log.Fatalf("Failed to register commands: %v", err)
	}
	dispatcher := bot.NewDispatcher(
		registry,
		repository.NewExecutionRepository(pool),
		cfg.Bot.InstanceTTL,
		cfg.Bot.TestingGuildID,
		logger,
	)
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.BaseWebURL))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(db, redis))
	r.Handle("/metrics", promhttp.Handler())

	secureCookies := cfg.Server.Environment != "dev"
	authHandler := handler.NewAuthHandler(data, discordClient, lichessClient, secureCookies, logger)
	accountHandler := handler.NewAccountHandler(data, logger)
	interactionHandler := handler.NewInteractionHandler(dispatcher, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(redis, middleware.DefaultRateLimitConfig()))
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/account", accountHandler.Routes())
	})

	// The gateway worker is the only caller; keep this off the public
	// ingress in deployment.
	r.Mount("/interactions", interactionHandler.Routes())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down", slog.String("signal", sig.String()))
	stopBus()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}

// healthHandler reports liveness; it succeeds whenever the process is up.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// readyHandler verifies the database and Redis connections.
func readyHandler(db *database.Postgres, redis *database.Redis) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"database"}`))
			return
		}

		if err := redis.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"redis"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","database":"connected","redis":"connected"}`))
	}
}
