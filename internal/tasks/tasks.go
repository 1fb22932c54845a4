// Package tasks schedules the gateway's periodic housekeeping: sweeping
// expired verification-cache entries and stale rate buckets. Each task
// keeps a small in-memory log ring so the admin surface can show what the
// last run did.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/giftwell/edgegate/internal/logging"
)

const maxLogsPerTask = 500

// runTimeout bounds a single task execution.
const runTimeout = time.Minute

// TaskFunc is the unit of work. It receives a logger whose output is
// stored next to the regular log stream.
type TaskFunc func(ctx context.Context, logger logging.InternalLogger) error

type TaskStatus struct {
	Name       string    `json:"name,omitempty"`
	Running    bool      `json:"running,omitempty"`
	LastRun    time.Time `json:"last_run"`
	LastResult string    `json:"last_result,omitempty"`
	NextRun    time.Time `json:"next_run"`
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
}

type TaskNotFoundError struct {
	Name string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task '%s' not found", e.Name)
}
