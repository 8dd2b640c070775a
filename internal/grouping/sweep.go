package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/models"
)

// Store is the structured store the sweep reads and marks.
type Store interface {
	InsertSummary(ctx context.Context, s models.RecordingSummary) (int64, error)
	SummariesByGroupKey(ctx context.Context, key string) ([]models.RecordingSummary, error)
	DistinctGroupKeys(ctx context.Context) ([]string, error)
	HasComparisonRecord(ctx context.Context, key string) (bool, error)
	MarkCompared(ctx context.Context, key string, at time.Time) error
}

// Status is a classifier verdict.
type Status string

const (
	StatusSimilar    Status = "similar"
	StatusDeviations Status = "deviations"
)

// Classification is the classifier's answer for one weekend.
type Classification struct {
	Status  Status `json:"status"`
	Summary string `json:"summary"`
}

// Classifier compares the summaries of one weekend.
type Classifier interface {
	Classify(ctx context.Context, summaries string) (Classification, error)
}

// Report counts what one sweep did with each key.
type Report struct {
	Keys       int `json:"keys"`
	Pending    int `json:"pending"`
	Already    int `json:"already_compared"`
	Single     int `json:"single"`
	Compared   int `json:"compared"`
	Deviations int `json:"deviations"`
	Failed     int `json:"failed"`
	Invalid    int `json:"invalid"`
	Errors     int `json:"errors"`
}

// Sweeper runs the deviation sweep.
type Sweeper struct {
	store      Store
	classifier Classifier
	notifier   alert.Notifier
	rule       Rule
	logger     *slog.Logger

	mu      sync.Mutex
	alerted map[string]bool
}

// NewSweeper wires a sweeper. A nil logger means slog.Default().
func NewSweeper(store Store, classifier Classifier, notifier alert.Notifier, rule Rule, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		rule:       rule,
		logger:     logger,
		alerted:    make(map[string]bool),
	}
}

// Sweep visits every group key once, in store order. A key is compared at
// most once: the comparison record is written as the last step for that key.
// Per-key failures are logged and counted, and alerted once per key until the
// key is swept cleanly again. Only listing the keys or context cancellation
// ends the sweep early.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Report, error) {
	var rep Report

	keys, err := s.store.DistinctGroupKeys(ctx)
	if err != nil {
		return rep, fmt.Errorf("grouping: list keys: %w", err)
	}
	rep.Keys = len(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := s.sweepKey(ctx, key, now, &rep); err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			rep.Errors++
			s.logger.Error("sweep: key failed",
				slog.String("group_key", key),
				slog.String("error", err.Error()),
			)
			s.alertOnce(ctx, "error:"+key,
				fmt.Sprintf("Homily sweep failed for Weekend %s", key),
				"The weekend could not be checked and will be retried on the next sweep:\n\n"+err.Error(),
			)
			continue
		}
		s.clearAlert("error:" + key)
	}

	s.logger.Info("sweep: done",
		slog.Int("keys", rep.Keys),
		slog.Int("compared", rep.Compared),
		slog.Int("deviations", rep.Deviations),
		slog.Int("pending", rep.Pending),
		slog.Int("invalid", rep.Invalid),
	)
	return rep, nil
}

func (s *Sweeper) sweepKey(ctx context.Context, key string, now time.Time, rep *Report) error {
	due, err := s.rule.Due(key, now)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidGroupKey) {
			rep.Invalid++
			s.logger.Warn("sweep: invalid group key", slog.String("group_key", key))
			s.alertOnce(ctx, "invalid:"+key,
				fmt.Sprintf("Invalid weekend key %q", key),
				"Stored summaries carry a group key that is not a date, so they are never compared:\n\n"+err.Error(),
			)
			return nil
		}
		return err
	}
	if !due {
		rep.Pending++
		return nil
	}

	done, err := s.store.HasComparisonRecord(ctx, key)
	if err != nil {
		return fmt.Errorf("grouping: check %s: %w", key, err)
	}
	if done {
		rep.Already++
		return nil
	}

	rows, err := s.store.SummariesByGroupKey(ctx, key)
	if err != nil {
		return fmt.Errorf("grouping: summaries %s: %w", key, err)
	}
	if len(rows) < 2 {
		rep.Single++
		return s.mark(ctx, key, now)
	}

	details := FormatSummaries(rows)
	verdict, err := s.classifier.Classify(ctx, details)
	if err == nil {
		err = verdict.validate()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rep.Failed++
		s.logger.Error("sweep: classify failed",
			slog.String("group_key", key),
			slog.String("error", err.Error()),
		)
		s.notifier.Notify(ctx,
			fmt.Sprintf("Homily comparison failed for Weekend %s", key),
			fmt.Sprintf("Comparison of %d homilies failed:\n\n%s", len(rows), err.Error()),
		)
		return s.mark(ctx, key, now)
	}

	rep.Compared++
	if verdict.Status == StatusDeviations {
		rep.Deviations++
		s.logger.Warn("sweep: deviations detected",
			slog.String("group_key", key),
			slog.Int("recordings", len(rows)),
		)
		subject, msg := alert.Deviation(key, verdict.Summary, details)
		s.notifier.Notify(ctx, subject, msg)
	}
	return s.mark(ctx, key, now)
}

func (s *Sweeper) mark(ctx context.Context, key string, now time.Time) error {
	if err := s.store.MarkCompared(ctx, key, now); err != nil {
		return fmt.Errorf("grouping: mark %s: %w", key, err)
	}
	return nil
}

// alertOnce notifies for id unless it has already been alerted.
func (s *Sweeper) alertOnce(ctx context.Context, id, subject, message string) {
	s.mu.Lock()
	seen := s.alerted[id]
	s.alerted[id] = true
	s.mu.Unlock()
	if seen {
		return
	}
	s.notifier.Notify(ctx, subject, message)
}

func (s *Sweeper) clearAlert(id string) {
	s.mu.Lock()
	delete(s.alerted, id)
	s.mu.Unlock()
}

func (c Classification) validate() error {
	switch c.Status {
	case StatusSimilar, StatusDeviations:
		return nil
	default:
		return fmt.Errorf("grouping: classifier status %q: %w", c.Status, apperr.ErrClassifierProtocolViolation)
	}
}

// FormatSummaries renders one block per recording, separated by a rule line.
func FormatSummaries(rows []models.RecordingSummary) string {
	blocks := make([]string, len(rows))
	for i, r := range rows {
		blocks[i] = fmt.Sprintf("Filename: %s\nTitle: %s\nDescription: %s\nSpecial: %s",
			r.RecordingID, r.Title, r.Description, r.SpecialContext)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
