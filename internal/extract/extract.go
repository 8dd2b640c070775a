// Package extract trims the homily out of a recording with ffmpeg.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/pkg/executor"
)

// Extractor cuts window out of source and writes it to dest.
type Extractor interface {
	Extract(ctx context.Context, source, dest string, window models.BoundaryWindow) error
}

// FFmpeg is an Extractor that stream-copies the window without re-encoding.
type FFmpeg struct {
	binary string
	exec   executor.Executor
	logger *slog.Logger
}

// NewFFmpeg returns an extractor invoking binary through exec.
func NewFFmpeg(binary string, exec executor.Executor, logger *slog.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpeg{binary: binary, exec: exec, logger: logger}
}

// Args returns the ffmpeg argument list for one extraction.
func Args(source, dest string, window models.BoundaryWindow) []string {
	return []string{
		"-y",
		"-i", source,
		"-ss", seconds(window.Start),
		"-to", seconds(window.End),
		"-c", "copy",
		dest,
	}
}

// Extract implements Extractor.
func (f *FFmpeg) Extract(ctx context.Context, source, dest string, window models.BoundaryWindow) error {
	if window.End <= window.Start {
		return fmt.Errorf("extract: empty window %.3f-%.3f", window.Start, window.End)
	}
	f.logger.Info("extract: trimming",
		slog.String("source", source),
		slog.String("dest", dest),
		slog.Float64("start", window.Start),
		slog.Float64("end", window.End),
	)
	if _, err := f.exec.Execute(ctx, f.binary, Args(source, dest, window)...); err != nil {
		return fmt.Errorf("extract: %s: %w", source, err)
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

var _ Extractor = (*FFmpeg)(nil)
