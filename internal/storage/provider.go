// Package storage is the local media library: recordings, their transcript
// sidecars and the extracted homilies written next to them.
package storage

import "time"

// Recording is one service recording in the library.
type Recording struct {
	// Name is the file name, which doubles as the recording identity.
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// Provider is the interface for library file operations.
type Provider interface {
	// Recordings returns every media file in the library, oldest first.
	Recordings() ([]Recording, error)
	// Latest returns the newest recording.
	Latest() (Recording, error)
	// Lookup returns the recording with the given file name.
	Lookup(name string) (Recording, error)
	// ForSidecar maps a transcript path back to its recording.
	ForSidecar(path string) (Recording, bool)
	TranscriptPath(r Recording) string
	CuesPath(r Recording) string
	HomilyPath(r Recording) string
	// Read returns the raw bytes of the file at path (relative to the library root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the library root).
	Write(path string, content []byte) error
	Root() string
}
