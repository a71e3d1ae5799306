package main

import (
	"context"
	"log/slog"
)

// namedCloser is one shutdown step.
type namedCloser struct {
	name  string
	close func() error
}

// newCleanup returns a hook that runs the steps in order and logs, rather
// than stops at, failures. The authenticator goes first so its pending
// last_used_at writes still have a store.
func newCleanup(ctx context.Context, steps ...namedCloser) func() {
	return func() {
		for _, step := range steps {
			if step.close == nil {
				continue
			}
			if err := step.close(); err != nil {
				slog.ErrorContext(ctx, "shutdown step failed", "step", step.name, "error", err)
				continue
			}
			slog.InfoContext(ctx, "shutdown step complete", "step", step.name)
		}
	}
}
