package tasks

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/giftwell/edgegate/internal/logging"
)

var _ logging.InternalLogger = (*taskStoreLogger)(nil)

// taskStoreLogger appends task output to the task's in-memory log ring.
type taskStoreLogger struct {
	task *RunnableTask
}

func (t *taskStoreLogger) Info(format string, args ...any) {
	t.task.AppendLog("info", fmt.Sprintf(format, args...))
}

func (t *taskStoreLogger) Warn(format string, args ...any) {
	t.task.AppendLog("warn", fmt.Sprintf(format, args...))
}

func (t *taskStoreLogger) Error(format string, args ...any) {
	t.task.AppendLog("error", fmt.Sprintf(format, args...))
}

// newCompositeLogger logs to both zerolog and the task store.
func newCompositeLogger(task *RunnableTask, zlog zerolog.Logger) logging.MultiLogger {
	return logging.NewMultiLogger(
		logging.NewZLogger(zlog),
		&taskStoreLogger{task: task},
	)
}
