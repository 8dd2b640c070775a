// Package inbox watches the library directory and processes each recording
// once its timed-text transcript arrives.
package inbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/homilyd/internal/pipeline"
	"github.com/starford/homilyd/internal/storage"
)

const defaultDebounce = 500 * time.Millisecond

// Processor runs one recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, rec storage.Recording) (pipeline.Result, error)
}

// Seen reports whether a recording already has a stored summary.
type Seen interface {
	HasRecording(ctx context.Context, recordingID string) (bool, error)
}

// EventCallback is called after each processed recording.
type EventCallback func(rec storage.Recording, res pipeline.Result, err error)

// Inbox feeds new recordings to a Processor, one at a time.
type Inbox struct {
	lib      storage.Provider
	proc     Processor
	seen     Seen
	logger   *slog.Logger
	debounce time.Duration
	cb       EventCallback

	mu   sync.Mutex
	done map[string]bool
}

// New returns an Inbox. A nil logger means slog.Default().
func New(lib storage.Provider, proc Processor, seen Seen, logger *slog.Logger, cb EventCallback) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		lib:      lib,
		proc:     proc,
		seen:     seen,
		logger:   logger,
		debounce: defaultDebounce,
		cb:       cb,
		done:     make(map[string]bool),
	}
}

// SetDebounce changes the quiet period before a transcript is processed.
func (i *Inbox) SetDebounce(d time.Duration) {
	i.debounce = d
}

// Sync processes every recording whose transcript is present but which has
// no stored summary yet.
func (i *Inbox) Sync(ctx context.Context) error {
	recs, err := i.lib.Recordings()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, statErr := os.Stat(i.lib.CuesPath(rec)); statErr != nil {
			continue
		}
		i.handle(ctx, rec)
	}
	return nil
}

// Watch processes transcripts written to the library root until ctx is
// cancelled. Bursts of writes to one file are debounced.
func (i *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(i.lib.Root()); err != nil {
		return err
	}
	i.logger.Info("inbox: watching", slog.String("root", i.lib.Root()))

	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(path string) {
		if t, ok := timers[path]; ok {
			t.Reset(i.debounce)
			return
		}
		timers[path] = time.AfterFunc(i.debounce, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("inbox: stopped")
			return nil

		case path := <-ready:
			delete(timers, path)
			rec, ok := i.lib.ForSidecar(path)
			if !ok {
				i.logger.Debug("inbox: transcript without recording", slog.String("path", path))
				continue
			}
			i.handle(ctx, rec)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".vtt") || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			i.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func (i *Inbox) handle(ctx context.Context, rec storage.Recording) {
	log := i.logger.With(slog.String("recording", rec.Name))

	i.mu.Lock()
	if i.done[rec.Name] {
		i.mu.Unlock()
		return
	}
	i.mu.Unlock()

	seen, err := i.seen.HasRecording(ctx, rec.Name)
	if err != nil {
		log.Warn("inbox: lookup failed", slog.String("error", err.Error()))
		return
	}
	if seen {
		log.Debug("inbox: already processed")
		i.markDone(rec.Name)
		return
	}

	log.Info("inbox: processing")
	res, err := i.proc.Process(ctx, rec)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Warn("inbox: processing failed", slog.String("error", err.Error()))
	}
	i.markDone(rec.Name)
	if i.cb != nil {
		i.cb(rec, res, err)
	}
}

func (i *Inbox) markDone(name string) {
	i.mu.Lock()
	i.done[name] = true
	i.mu.Unlock()
}
