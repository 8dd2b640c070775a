// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/homilyd/internal/api"
	"github.com/starford/homilyd/internal/inbox"
	"github.com/starford/homilyd/internal/pipeline"
	"github.com/starford/homilyd/internal/sse"
	"github.com/starford/homilyd/internal/storage"
)

// Run starts the long-running service: the library watcher, the weekend
// sweep ticker and the HTTP API.
func Run(ctx context.Context, opts ...Option) error {
	return withComponents(opts, func(c *components) error {
		return serve(ctx, c)
	})
}

func serve(ctx context.Context, c *components) error {
	cfg, logger := c.cfg, c.logger

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	in := inbox.New(c.library, c.pipeline, c.db, logger, func(rec storage.Recording, res pipeline.Result, err error) {
		broker.PublishRecording(recordingEvent(rec, res, err), err != nil)
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	apiRouter := api.NewRouter(c.service, cfg.Auth.AuthEnabled(), cfg.Auth.Token)
	apiRouter.Get("/events", broker.ServeHTTP)
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Catch up on transcripts that arrived while stopped, then watch.
	g.Go(func() error {
		if err := in.Sync(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		if err := in.Watch(gCtx); err != nil {
			return fmt.Errorf("inbox watcher: %w", err)
		}
		return nil
	})

	// Weekend deviation sweep.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.App.PollInterval)
		defer ticker.Stop()
		for {
			rep, err := c.sweeper.Sweep(gCtx, time.Now())
			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				logger.Error("sweep failed", slog.String("error", err.Error()))
			case err == nil && rep.Compared > 0:
				broker.Publish(sse.Event{Type: sse.TypeSweepCompleted, Data: rep})
			}

			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func recordingEvent(rec storage.Recording, res pipeline.Result, err error) sse.RecordingEvent {
	ev := sse.RecordingEvent{Recording: rec.Name, RunID: res.RunID}
	if res.HomilyPath != "" {
		ev.Homily = filepath.Base(res.HomilyPath)
	}
	if res.Summary != nil {
		ev.GroupKey = res.Summary.GroupKey
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// errShutdown cancels the group once a signal arrives so the watcher and
// sweep loops stop with the HTTP server.
var errShutdown = errors.New("shutdown")
