// Package llm holds the prompts and response decoding for the language model
// collaborators: transcript analysis, homily start inference and weekend
// comparison.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/starford/homilyd/internal/analysis"
	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/grouping"
)

const analyzePrompt = `You are a helpful Catholic Mass assistant.

Read the following transcript of a Catholic homily and respond with the following:

1. Title of the homily (1 short phrase in Title Case)
2. Description of the homily (1-3 sentences)
3. Any special context clues: was it a school Mass, baptism, funeral, etc.?
4. The liturgical day, if it can be inferred (for example "Third Sunday of Advent")
5. The lectionary year cycle (A, B or C), if it can be inferred
6. If a title/description cannot be determined, say so clearly.

Transcript:
"""
%s
"""
Respond using this JSON format:
{
  "title": "...",
  "description": "...",
  "special": "...",
  "liturgical_day": "...",
  "liturgical_year": "..."
}`

const inferStartPrompt = `You are given the timed transcript (WebVTT) of a recorded Catholic Mass.
Find the moment the homily begins: the first words of the priest or deacon after the Gospel reading ends.

Respond with exactly this JSON object and nothing else:
{"start": "HH:MM:SS.mmm"}

Use the start timestamp of the cue where the homily begins, copied from the transcript.
If you cannot determine it, respond with {"start": ""}.

Transcript:
"""
%s
"""`

const comparePrompt = `You are a Catholic homily analyst.

Here are summaries of homilies from the same weekend:

%s

Determine if they are all essentially the same homily or if there are significant deviations in content, theme, or special contexts.

If all similar, respond with: {"status": "similar", "summary": "All homilies are consistent."}

If deviations, respond with: {"status": "deviations", "summary": "Detailed summary of differences, highlighting which ones deviate and how."}

Respond in JSON.`

const (
	analyzeTemperature = 0.5
	inferTemperature   = 0.0
	compareTemperature = 0.1
)

// Client implements the analysis, boundary and grouping collaborators on top
// of a Generator.
type Client struct {
	gen     Generator
	timeout time.Duration
}

// New wraps gen. A positive timeout bounds each request.
func New(gen Generator, timeout time.Duration) *Client {
	return &Client{gen: gen, timeout: timeout}
}

var (
	_ analysis.Analyzer   = (*Client)(nil)
	_ boundary.Inferrer   = (*Client)(nil)
	_ grouping.Classifier = (*Client)(nil)
)

// Analyze implements analysis.Analyzer.
func (c *Client) Analyze(ctx context.Context, transcript string) (analysis.Analysis, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(analyzePrompt, transcript), analyzeTemperature)
	if err != nil {
		return analysis.Analysis{}, err
	}
	var out analysis.Analysis
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil {
		return analysis.Analysis{}, fmt.Errorf("llm: analysis response not valid JSON: %w", err)
	}
	return out, nil
}

type startResponse struct {
	Start *string `json:"start"`
}

// InferStart implements boundary.Inferrer. The response must be an object
// with exactly one string field, start.
func (c *Client) InferStart(ctx context.Context, document string) (string, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(inferStartPrompt, document), inferTemperature)
	if err != nil {
		return "", err
	}
	return DecodeStart(raw)
}

// DecodeStart parses an inferrer response. Any shape other than
// {"start": "<string>"} wraps apperr.ErrFallbackProtocolViolation.
func DecodeStart(raw string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripFence(raw))))
	dec.DisallowUnknownFields()

	var resp startResponse
	if err := dec.Decode(&resp); err != nil {
		return "", fmt.Errorf("llm: start response %q: %v: %w", truncate(raw), err, apperr.ErrFallbackProtocolViolation)
	}
	if dec.More() {
		return "", fmt.Errorf("llm: start response has trailing data: %w", apperr.ErrFallbackProtocolViolation)
	}
	if resp.Start == nil {
		return "", fmt.Errorf("llm: start response missing field: %w", apperr.ErrFallbackProtocolViolation)
	}
	return strings.TrimSpace(*resp.Start), nil
}

// Classify implements grouping.Classifier.
func (c *Client) Classify(ctx context.Context, summaries string) (grouping.Classification, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(comparePrompt, summaries), compareTemperature)
	if err != nil {
		return grouping.Classification{}, err
	}
	return DecodeClassification(raw)
}

// DecodeClassification parses a comparison response.
func DecodeClassification(raw string) (grouping.Classification, error) {
	var out grouping.Classification
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil {
		return out, fmt.Errorf("llm: comparison response %q: %v: %w", truncate(raw), err, apperr.ErrClassifierProtocolViolation)
	}
	out.Status = grouping.Status(strings.ToLower(strings.TrimSpace(string(out.Status))))
	switch out.Status {
	case grouping.StatusSimilar, grouping.StatusDeviations:
		return out, nil
	default:
		return out, fmt.Errorf("llm: comparison status %q: %w", out.Status, apperr.ErrClassifierProtocolViolation)
	}
}

func (c *Client) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.gen.Generate(ctx, prompt, temperature)
}

// stripFence removes a surrounding markdown code fence, which models add
// even when asked for bare JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
