package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/analysis"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/extract"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/homilyservice"
	"github.com/starford/homilyd/internal/llm"
	"github.com/starford/homilyd/internal/pipeline"
	"github.com/starford/homilyd/internal/storage"
	"github.com/starford/homilyd/internal/store"
	"github.com/starford/homilyd/pkg/executor"
)

// components is the wired object graph shared by every command.
type components struct {
	cfg      *Config
	logger   *slog.Logger
	db       *store.DB
	library  *storage.Library
	notifier alert.Notifier
	detector *boundary.Detector
	pipeline *pipeline.Pipeline
	sweeper  *grouping.Sweeper
	service  *homilyservice.Service
}

// build applies opts, installs the default logger and wires all components.
// The caller must call close on success.
func build(opts []Option) (*components, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}
	rule := cfg.Grouping.Rule(loc)

	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	library, err := storage.NewLibrary(cfg.Library.Path, cfg.Library.MediaPrefix, cfg.Library.HomilyPrefix)
	if err != nil {
		return nil, fmt.Errorf("init library: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	notifier := app.notifier
	if notifier == nil {
		if cfg.Email.Enabled {
			notifier = alert.NewSMTP(cfg.Email.SMTP(), logger)
		} else {
			notifier = alert.NewLog(logger)
		}
	}

	gen := app.generator
	if gen == nil {
		g, err := llm.NewGemini(cfg.LLM.APIKeys, cfg.LLM.Model, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		gen = g
	}
	client := llm.New(gen, cfg.LLM.Timeout)

	exec := app.executor
	if exec == nil {
		exec = executor.New()
	}

	detector := boundary.NewDetector(cfg.Detection.Boundary())
	pipe := pipeline.New(pipeline.Deps{
		Library:    library,
		Summarizer: analysis.NewService(client, rule),
		Store:      db,
		Detector:   detector,
		Inferrer:   client,
		Extractor:  extract.NewFFmpeg(cfg.FFmpeg.Binary, exec, logger),
		Notifier:   notifier,
		Logger:     logger,
	}, pipeline.Settings{
		Limits:           cfg.Detection.Limits(),
		InvalidThreshold: cfg.Detection.InvalidThreshold,
	})
	sweeper := grouping.NewSweeper(db, client, notifier, rule, logger)

	svc := homilyservice.NewService(homilyservice.Deps{
		Store:    db,
		Library:  library,
		Detector: detector,
		Inferrer: client,
		Pipeline: pipe,
		Sweeper:  sweeper,
		Rule:     rule,
	}, homilyservice.Settings{
		Limits:           cfg.Detection.Limits(),
		InvalidThreshold: cfg.Detection.InvalidThreshold,
	})

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("time_zone", loc.String()),
		slog.Bool("email", cfg.Email.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return &components{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		library:  library,
		notifier: notifier,
		detector: detector,
		pipeline: pipe,
		sweeper:  sweeper,
		service:  svc,
	}, nil
}

func (c *components) close() {
	if err := c.db.Close(); err != nil {
		c.logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}

// withComponents builds the graph, runs fn and tears it down.
func withComponents(opts []Option, fn func(*components) error) error {
	c, err := build(opts)
	if err != nil {
		return err
	}
	defer c.close()
	return fn(c)
}

// latest returns the newest recording or a user-facing error for an empty library.
func (c *components) latest() (storage.Recording, error) {
	rec, err := c.library.Latest()
	if err != nil {
		return storage.Recording{}, fmt.Errorf("latest recording in %s: %w", c.cfg.Library.Path, err)
	}
	return rec, nil
}
