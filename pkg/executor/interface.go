// Package executor runs external commands.
package executor

import "context"

// Executor runs a command and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
