package internal

import (
	"context"
	"time"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/mcpserver"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/pipeline"
)

// TestAlert sends a sample problem report through the configured notifier.
func TestAlert(ctx context.Context, opts ...Option) error {
	return withComponents(opts, func(c *components) error {
		c.notifier.Notify(ctx, "", alert.Problem("TEST-Mass.mp3", "This is a test of the transcript alert system."))
		return nil
	})
}

// AnalyzeLatest analyzes the newest recording's transcript and stores the summary.
func AnalyzeLatest(ctx context.Context, opts ...Option) (models.RecordingSummary, error) {
	var out models.RecordingSummary
	err := withComponents(opts, func(c *components) error {
		rec, err := c.latest()
		if err != nil {
			return err
		}
		out, err = c.pipeline.Analyze(ctx, rec)
		return err
	})
	return out, err
}

// ExtractLatest cuts the homily out of the newest recording.
func ExtractLatest(ctx context.Context, opts ...Option) (pipeline.Result, error) {
	var out pipeline.Result
	err := withComponents(opts, func(c *components) error {
		rec, err := c.latest()
		if err != nil {
			return err
		}
		out, err = c.pipeline.Extract(ctx, rec)
		return err
	})
	return out, err
}

// ProcessLatest runs the full pipeline on the newest recording.
func ProcessLatest(ctx context.Context, opts ...Option) (pipeline.Result, error) {
	var out pipeline.Result
	err := withComponents(opts, func(c *components) error {
		rec, err := c.latest()
		if err != nil {
			return err
		}
		out, err = c.pipeline.Process(ctx, rec)
		return err
	})
	return out, err
}

// Process runs the full pipeline on one named recording.
func Process(ctx context.Context, name string, opts ...Option) (pipeline.Result, error) {
	var out pipeline.Result
	err := withComponents(opts, func(c *components) error {
		var err error
		out, err = c.service.Process(ctx, name)
		return err
	})
	return out, err
}

// Sweep compares every finished weekend once.
func Sweep(ctx context.Context, opts ...Option) (grouping.Report, error) {
	var out grouping.Report
	err := withComponents(opts, func(c *components) error {
		var err error
		out, err = c.sweeper.Sweep(ctx, time.Now())
		return err
	})
	return out, err
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	return withComponents(opts, func(c *components) error {
		srv := mcpserver.New(c.service, c.cfg.Detection.Boundary(), c.cfg.Detection.Limits())
		c.logger.Info("mcp: serving on stdio")
		return srv.ServeStdio()
	})
}
