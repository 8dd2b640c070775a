package internal

import (
	"io"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/llm"
	"github.com/starford/homilyd/pkg/executor"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	notifier  alert.Notifier
	generator llm.Generator
	executor  executor.Executor
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects the JSON log. The MCP command logs to stderr
// because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithNotifier replaces the notifier built from the email configuration.
func WithNotifier(n alert.Notifier) Option {
	return func(a *application) {
		a.notifier = n
	}
}

// WithGenerator replaces the Gemini client.
func WithGenerator(g llm.Generator) Option {
	return func(a *application) {
		a.generator = g
	}
}

// WithExecutor replaces the command runner used for ffmpeg.
func WithExecutor(e executor.Executor) Option {
	return func(a *application) {
		a.executor = e
	}
}
