package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Generator produces a single text completion for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Gemini is a Generator backed by the Gemini API. Requests rotate to the
// next API key when a key is rate limited.
type Gemini struct {
	apiKeys []string
	model   string
	logger  *slog.Logger

	mu      sync.Mutex
	current int
	clients map[string]*genai.Client
}

// NewGemini returns a generator for model using apiKeys in order.
func NewGemini(apiKeys []string, model string, logger *slog.Logger) (*Gemini, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("llm: no API keys configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		apiKeys: apiKeys,
		model:   model,
		logger:  logger,
		clients: make(map[string]*genai.Client),
	}, nil
}

// Generate implements Generator. Responses are requested as JSON.
func (g *Gemini) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for range len(g.apiKeys) {
		idx, key := g.key()

		client, err := g.client(ctx, key)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotate(idx)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			if rateLimited(err) {
				g.logger.Warn("llm: key rate limited, rotating", slog.Int("key", idx+1))
				g.rotate(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("llm: generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			return text.String(), nil
		}
		return "", errors.New("llm: empty response from Gemini")
	}

	return "", fmt.Errorf("llm: all API keys exhausted: %w", lastErr)
}

func (g *Gemini) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.apiKeys[g.current]
}

// rotate advances past idx unless another request already did.
func (g *Gemini) rotate(idx int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == idx {
		g.current = (g.current + 1) % len(g.apiKeys)
	}
}

func (g *Gemini) client(ctx context.Context, key string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.clients[key] = c
	return c, nil
}

func rateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

var _ Generator = (*Gemini)(nil)
