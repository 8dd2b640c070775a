// Package parser turns a timed-text transcript (WebVTT or SRT) into an ordered cue sequence.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/timecode"
)

const separator = "-->"

// DefaultInvalidThreshold is the number of unusable separator lines above
// which a document is treated as suspect.
const DefaultInvalidThreshold = 5

// Result holds the output of parsing a timed-text document.
type Result struct {
	Cues []models.Cue
	// InvalidTimestamps counts separator lines whose timecodes failed to parse.
	InvalidTimestamps int
}

// Suspect reports whether the invalid timestamp count exceeds threshold.
func (r *Result) Suspect(threshold int) bool {
	return r.InvalidTimestamps > threshold
}

// Last returns the final cue. ok is false for an empty result.
func (r *Result) Last() (models.Cue, bool) {
	if len(r.Cues) == 0 {
		return models.Cue{}, false
	}
	return r.Cues[len(r.Cues)-1], true
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (*Result, error) {
	return Parse(bytes.NewReader(data))
}

// Parse scans r line by line. A valid "<start> --> <end>" line finalizes the
// open cue and opens a new one; an invalid one is only counted. Text lines are
// space-joined onto the open cue, and lines before the first valid separator
// are discarded. A numeric line directly before a separator is a cue
// identifier and is dropped. Cues keep input order.
func Parse(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	res := &Result{Cues: make([]models.Cue, 0)}

	var (
		open    bool
		current models.Cue
		text    strings.Builder
		pending string
	)

	appendText := func(line string) {
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(line)
	}

	finalize := func() {
		if !open {
			return
		}
		t := strings.TrimSpace(text.String())
		if t == "" {
			return
		}
		current.Text = t
		res.Cues = append(res.Cues, current)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.Contains(line, separator) {
			pending = ""
			start, end, err := parseSeparator(line)
			if err != nil {
				res.InvalidTimestamps++
				continue
			}
			finalize()
			open = true
			current = models.Cue{Start: start, End: end}
			text.Reset()
			continue
		}

		if !open {
			continue
		}
		if pending != "" {
			appendText(pending)
			pending = ""
		}
		if isIdentifier(line) {
			pending = line
			continue
		}
		appendText(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parser: scan: %w", err)
	}

	if pending != "" {
		appendText(pending)
	}
	finalize()
	return res, nil
}

// parseSeparator reads the first token on each side of "-->". Trailing cue
// settings such as "align:start" are ignored.
func parseSeparator(line string) (float64, float64, error) {
	left, right, _ := strings.Cut(line, separator)

	lf := strings.Fields(left)
	rf := strings.Fields(right)
	if len(lf) == 0 || len(rf) == 0 {
		return 0, 0, fmt.Errorf("parser: separator %q: missing timecode", line)
	}

	start, err := timecode.Parse(lf[len(lf)-1])
	if err != nil {
		return 0, 0, err
	}
	end, err := timecode.Parse(rf[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func isIdentifier(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
