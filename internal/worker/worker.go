package worker

import (
	"context"
)

// Worker is a long-running background job.
type Worker interface {
	// Start blocks until the worker stops or ctx is cancelled.
	Start(ctx context.Context) error

	Stop() error

	Name() string
}
