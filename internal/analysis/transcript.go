// Package analysis checks plain-text transcripts and turns them into
// recording summaries.
package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/starford/homilyd/internal/apperr"
)

const (
	minTranscriptChars = 10
	garbageMinWords    = 50
	garbageMinUnique   = 10
	garbageMaxShare    = 0.5
)

// UnusableError explains why a transcript was rejected.
type UnusableError struct {
	Path   string
	Reason string
}

func (e *UnusableError) Error() string {
	if e.Path == "" {
		return "analysis: " + e.Reason
	}
	return fmt.Sprintf("analysis: %s: %s", e.Path, e.Reason)
}

func (e *UnusableError) Unwrap() error { return apperr.ErrTranscriptUnusable }

// ReadTranscript loads and checks the transcript at path.
func ReadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &UnusableError{Path: path, Reason: "Transcript file is missing."}
	}
	if err != nil {
		return "", &UnusableError{Path: path, Reason: "Unexpected error reading transcript: " + err.Error()}
	}
	if !utf8.Valid(data) {
		return "", &UnusableError{Path: path, Reason: "Encoding error in transcript: invalid UTF-8"}
	}

	text := strings.TrimSpace(string(data))
	if err := CheckTranscript(text); err != nil {
		var ue *UnusableError
		if errors.As(err, &ue) {
			ue.Path = path
		}
		return "", err
	}
	return text, nil
}

// CheckTranscript rejects blank, very short and degenerate transcripts.
// A long transcript is garbage when its vocabulary is tiny or one word makes
// up more than half of it, which is what a stuck recognizer produces.
func CheckTranscript(text string) error {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minTranscriptChars {
		return &UnusableError{Reason: "Transcript is blank or too short."}
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) <= garbageMinWords {
		return nil
	}

	counts := make(map[string]int, len(words))
	top := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > top {
			top = counts[w]
		}
	}
	if len(counts) < garbageMinUnique {
		return &UnusableError{Reason: fmt.Sprintf("Transcript appears to be garbage (%d unique words out of %d).", len(counts), len(words))}
	}
	if float64(top)/float64(len(words)) > garbageMaxShare {
		return &UnusableError{Reason: "Transcript appears to be garbage (one word dominates)."}
	}
	return nil
}
