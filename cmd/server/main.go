package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/p-n-ai/exam-tutor/internal/app"
	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/config"
	"github.com/p-n-ai/exam-tutor/internal/platform/metrics"
	"github.com/p-n-ai/exam-tutor/internal/transport"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := knowledge.Load(cfg.ContentPath)
	if err != nil {
		return err
	}
	slog.Info("content loaded",
		"path", cfg.ContentPath,
		"domains", len(catalog.Domains()),
		"questions", len(catalog.AllQuestions()),
	)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	backends, err := app.Open(startCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer backends.Close()

	idleTTL := time.Duration(cfg.Transport.IdleTimeout) * time.Second
	dispatcher := transport.NewDispatcher(transport.DispatcherConfig{
		Registry:       backends.NewRegistry(catalog, idleTTL),
		RateLimit:      cfg.Transport.RateLimit,
		RateBurst:      cfg.Transport.RateBurst,
		OriginPatterns: cfg.Transport.WSOrigins,
		MaxRequestSize: cfg.Transport.MaxRequestSize,
		IdleTTL:        idleTTL,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     newMux(dispatcher, backends.Ready),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: it would cut long-lived WebSocket connections.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.Progress.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newMux creates the HTTP router: health checks, metrics and the tool API.
func newMux(d *transport.Dispatcher, ready func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", readyzHandler(ready))
	mux.Handle("GET /metrics", metrics.Handler())
	d.Routes(mux)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func readyzHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := ready(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
