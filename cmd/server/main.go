// Interview practice session server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/interview-labs/internal/api"
	"github.com/ashureev/interview-labs/internal/app"
	"github.com/ashureev/interview-labs/internal/config"
	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/identity"
	"github.com/ashureev/interview-labs/internal/middleware"
	"github.com/ashureev/interview-labs/internal/session"
	"github.com/ashureev/interview-labs/internal/stream"
	"github.com/ashureev/interview-labs/internal/voice"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	deps := session.Deps{
		Analyzer: components.Analyzer,
		Records:  components.Records,
	}
	if cfg.Voice.URL != "" {
		deps.Voice = voice.NewClient(voice.Config{URL: cfg.Voice.URL, APIKey: cfg.Voice.APIKey}, logger)
		slog.Info("Voice sessions enabled", "url", cfg.Voice.URL)
	} else {
		slog.Info("Voice sessions disabled (VOICE_WS_URL not set)")
	}

	// Sessions outlive the HTTP request that started them; they are bounded by
	// the process lifetime instead.
	sessions := session.NewService(context.Background(), deps, components.Questions, session.ServiceConfig{
		QuestionsPerSession: cfg.Session.QuestionsPerSession,
		DefaultLanguage:     domain.Language(cfg.Session.DefaultLanguage),
		Retention:           cfg.Session.Retention,
		StopGrace:           cfg.Voice.StopGrace,
		StopTimeout:         cfg.Voice.StopTimeout,
		ConnectTimeout:      cfg.Voice.ConnectTimeout,
	}, logger)

	registry := stream.NewRegistry()
	sessions.OnEvict(registry.CloseSession)

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(components.Repo, cfg.Timeout.HealthCheck)
	if components.AnalysisProbe != nil {
		healthHandler.WithAnalysis(components.AnalysisProbe)
	}
	sessionHandler := api.NewSessionHandler(sessions, components.Records, cfg.Timeout.AnswerWait)
	streamHandler := stream.NewHandler(func(id string) (stream.Session, bool) {
		o, ok := sessions.Get(id)
		if !ok {
			return nil, false
		}
		return o, true
	}, registry, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins(cfg)))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Session routes carry the anonymous identity.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(components.Repo, cfg.IsDevelopment()))
		sessionHandler.RegisterRoutes(r)
		r.Get("/ws/sessions/{id}", streamHandler.ServeHTTP)
	})

	// Note: WebSocket streams and the final-answer wait need long writes, so
	// there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start reaper.
	sessions.StartReaper(ctx, cfg.Session.ReapInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	if err := sessions.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Live sessions did not finish before shutdown deadline", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		components.Close()
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
