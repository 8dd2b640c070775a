package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/homilyd/internal/apperr"
)

const (
	mediaExt      = ".mp3"
	transcriptExt = ".txt"
	cuesExt       = ".vtt"
)

// Library implements Provider backed by a flat local directory.
type Library struct {
	root         string // absolute path to the library directory
	mediaPrefix  string
	homilyPrefix string
}

// NewLibrary creates a library rooted at the given directory.
// The directory must already exist.
func NewLibrary(root, mediaPrefix, homilyPrefix string) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Library{root: abs, mediaPrefix: mediaPrefix, homilyPrefix: homilyPrefix}, nil
}

// Root returns the absolute library directory.
func (l *Library) Root() string { return l.root }

// safePath resolves a relative path against the library root and rejects
// any result that escapes it (directory traversal).
func (l *Library) safePath(rel string) (string, error) {
	if rel == "" {
		return l.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(l.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) && abs != l.root {
		return "", fmt.Errorf("storage: path escapes library root: %s", rel)
	}
	return abs, nil
}

// IsMedia reports whether name is a recording rather than an extracted
// homily or a sidecar.
func (l *Library) IsMedia(name string) bool {
	return strings.HasPrefix(name, l.mediaPrefix) &&
		strings.EqualFold(filepath.Ext(name), mediaExt)
}

// Recordings lists media files in the library root, oldest first.
func (l *Library) Recordings() ([]Recording, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]Recording, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !l.IsMedia(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		out = append(out, Recording{
			Name:    e.Name(),
			Path:    filepath.Join(l.root, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Name < out[j].Name
		}
		return out[i].ModTime.Before(out[j].ModTime)
	})
	return out, nil
}

// Latest returns the most recently modified recording.
func (l *Library) Latest() (Recording, error) {
	recs, err := l.Recordings()
	if err != nil {
		return Recording{}, err
	}
	if len(recs) == 0 {
		return Recording{}, fmt.Errorf("storage: no recordings in %s: %w", l.root, apperr.ErrNotFound)
	}
	return recs[len(recs)-1], nil
}

// Lookup returns the recording named name. Only plain file names are accepted.
func (l *Library) Lookup(name string) (Recording, error) {
	if name == "" || filepath.Base(filepath.Clean(name)) != name {
		return Recording{}, fmt.Errorf("storage: invalid recording name: %q", name)
	}
	if !l.IsMedia(name) {
		return Recording{}, fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
	}
	abs, err := l.safePath(name)
	if err != nil {
		return Recording{}, err
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return Recording{}, fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return Recording{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return Recording{Name: name, Path: abs, ModTime: info.ModTime()}, nil
}

// ForSidecar maps a .vtt or .txt path inside the library to its recording.
// ok is false when the path is elsewhere, is not a sidecar, or the media
// file does not exist.
func (l *Library) ForSidecar(path string) (Recording, bool) {
	abs, err := filepath.Abs(path)
	if err != nil || filepath.Dir(abs) != l.root {
		return Recording{}, false
	}
	ext := filepath.Ext(abs)
	if ext != cuesExt && ext != transcriptExt {
		return Recording{}, false
	}
	rec, err := l.Lookup(strings.TrimSuffix(filepath.Base(abs), ext) + mediaExt)
	if err != nil {
		return Recording{}, false
	}
	return rec, true
}

func sibling(r Recording, ext string) string {
	return strings.TrimSuffix(r.Path, filepath.Ext(r.Path)) + ext
}

// TranscriptPath returns the plain-text transcript next to r.
func (l *Library) TranscriptPath(r Recording) string { return sibling(r, transcriptExt) }

// CuesPath returns the timed-text transcript next to r.
func (l *Library) CuesPath(r Recording) string { return sibling(r, cuesExt) }

// HomilyPath returns where the extracted homily for r is written.
func (l *Library) HomilyPath(r Recording) string {
	name := r.Name
	if strings.HasPrefix(name, l.mediaPrefix) {
		name = l.homilyPrefix + strings.TrimPrefix(name, l.mediaPrefix)
	} else {
		name = l.homilyPrefix + name
	}
	return filepath.Join(filepath.Dir(r.Path), name)
}

// Read returns the raw bytes of a library file.
func (l *Library) Read(path string) ([]byte, error) {
	abs, err := l.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (l *Library) Write(path string, content []byte) error {
	abs, err := l.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".homilyd-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Verify *Library satisfies Provider at compile time.
var _ Provider = (*Library)(nil)
