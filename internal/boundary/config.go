package boundary

import "strings"

// Config holds the lexical heuristics used by a Detector.
type Config struct {
	// GospelMarkers end the gospel reading. Matched per cue.
	GospelMarkers []string `yaml:"gospel_markers"`
	// EndMarkers open the part of the service that follows the homily.
	// Matched against the joined trailing window.
	EndMarkers []string `yaml:"end_markers"`
	WindowSize int      `yaml:"window_size"`
}

// Limits bound a plausible homily duration in seconds. Both ends are inclusive.
type Limits struct {
	MinSeconds float64 `yaml:"min_seconds"`
	MaxSeconds float64 `yaml:"max_seconds"`
}

const (
	DefaultWindowSize = 10
	DefaultMinSeconds = 60
	DefaultMaxSeconds = 1200
)

// DefaultGospelMarkers returns a fresh copy of the built-in gospel markers.
func DefaultGospelMarkers() []string {
	return []string{
		"the gospel of the lord",
		"gospel of the lord",
		"praise to you",
	}
}

// DefaultEndMarkers returns a fresh copy of the built-in end markers.
func DefaultEndMarkers() []string {
	return []string{
		"we pray to the lord",
		"lord, hear our prayer",
		"let us offer our prayers",
		"prayers of petition",
		"at the intercession",
		"i believe in one god",
		"prayer of the faithful",
		"prayers of the faithful",
	}
}

// DefaultConfig returns the built-in heuristics.
func DefaultConfig() Config {
	return Config{
		GospelMarkers: DefaultGospelMarkers(),
		EndMarkers:    DefaultEndMarkers(),
		WindowSize:    DefaultWindowSize,
	}
}

// DefaultLimits returns the built-in duration bounds.
func DefaultLimits() Limits {
	return Limits{MinSeconds: DefaultMinSeconds, MaxSeconds: DefaultMaxSeconds}
}

func normalise(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
