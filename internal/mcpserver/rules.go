package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/homilyd/internal/boundary"
)

// DetectionRules describes the cue format and the boundary heuristics in
// force, so that LLM consumers can prepare documents for detect_homily.
func DetectionRules(cfg boundary.Config, limits boundary.Limits) string {
	var b strings.Builder
	b.WriteString("# Homily Detection Rules\n\n")
	b.WriteString("## Document format\n\n")
	b.WriteString("A timed-text document is a sequence of cues. Each cue starts with a line\n")
	b.WriteString("`HH:MM:SS.mmm --> HH:MM:SS.mmm` followed by one or more text lines.\n")
	b.WriteString("`MM:SS.mmm` is accepted, and the fraction may use a comma as in SRT. Lines\n")
	b.WriteString("before the first timestamp line, such as a `WEBVTT` header, are ignored. A\n")
	b.WriteString("numeric line just before a timestamp line is a cue number and is dropped.\n\n")

	b.WriteString("## Start of the homily\n\n")
	b.WriteString("The first cue after the Gospel acclamation that does not itself contain a\n")
	b.WriteString("Gospel marker, so the congregation's reply is skipped. Gospel markers:\n\n")
	for _, m := range cfg.GospelMarkers {
		fmt.Fprintf(&b, "- %q\n", m)
	}
	b.WriteString("\n## End of the homily\n\n")
	fmt.Fprintf(&b, "The start of the earliest cue whose text, joined with the preceding cues in a\n"+
		"%d-cue window, contains one of:\n\n", cfg.WindowSize)
	for _, m := range cfg.EndMarkers {
		fmt.Fprintf(&b, "- %q\n", m)
	}
	b.WriteString("\nMatching is case-insensitive.\n\n")

	b.WriteString("## Duration check\n\n")
	fmt.Fprintf(&b, "Windows shorter than %.0fs or longer than %.0fs are reported as suspicious.\n",
		limits.MinSeconds, limits.MaxSeconds)
	b.WriteString("When no Gospel marker is found and fallback is enabled, a language model\n")
	b.WriteString("places the start; the window is then marked with source `fallback`.\n")
	return b.String()
}
