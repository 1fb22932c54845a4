package tasks

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giftwell/edgegate/internal/logging"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestManagerTrigger(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var runs int32
	m.Register("sweep", 0, func(ctx context.Context, logger logging.InternalLogger) error {
		atomic.AddInt32(&runs, 1)
		logger.Info("swept %d entries", 3)
		return nil
	})

	if err := m.Trigger("sweep"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })

	waitFor(t, func() bool {
		logs, err := m.GetLogs("sweep")
		return err == nil && len(logs) >= 1
	})
	logs, _ := m.GetLogs("sweep")
	if !strings.Contains(logs[0].Message, "swept 3 entries") {
		t.Errorf("logs = %+v", logs)
	}
}

func TestManagerTriggerUnknownTask(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	err := m.Trigger("nope")
	var notFound TaskNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "nope" {
		t.Errorf("err = %v, want TaskNotFoundError", err)
	}
}

func TestManagerListStatus(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	m.Register("a", 0, func(ctx context.Context, logger logging.InternalLogger) error { return nil })
	m.Register("b", 0, func(ctx context.Context, logger logging.InternalLogger) error { return nil })

	statuses := m.ListStatus()
	if len(statuses) != 2 {
		t.Fatalf("statuses = %+v", statuses)
	}
}

func TestTaskFailureRecorded(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	m.Register("broken", 0, func(ctx context.Context, logger logging.InternalLogger) error {
		return errors.New("sink unavailable")
	})

	if err := m.Trigger("broken"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		for _, s := range m.ListStatus() {
			if s.Name == "broken" && strings.HasPrefix(s.LastResult, "failed") {
				return true
			}
		}
		return false
	})
}

func TestScheduledTaskRuns(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var runs int32
	m.Register("ticker", 10*time.Millisecond, func(ctx context.Context, logger logging.InternalLogger) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	waitFor(t, func() bool { return atomic.LoadInt32(&runs) >= 2 })
}

func TestStopHaltsSchedules(t *testing.T) {
	m := NewManager()

	var runs int32
	m.Register("ticker", 10*time.Millisecond, func(ctx context.Context, logger logging.InternalLogger) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	waitFor(t, func() bool { return atomic.LoadInt32(&runs) >= 1 })
	m.Stop()

	settled := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	// one run may have been in flight when Stop was called
	if after := atomic.LoadInt32(&runs); after > settled+1 {
		t.Errorf("runs kept increasing after Stop: %d -> %d", settled, after)
	}
}

func TestRunSkipsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	task := &RunnableTask{
		Name: "slow",
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			close(started)
			<-release
			return nil
		},
		Logs: make([]LogEntry, 0),
	}

	go task.Run()
	<-started

	// second run must bail out instead of piling up
	task.Run()
	if got := task.Status(); !got.Running {
		t.Error("first run should still be marked running")
	}

	close(release)
	waitFor(t, func() bool { return !task.Status().Running })
	if got := task.Status().LastResult; got != "success" {
		t.Errorf("last result = %q", got)
	}
}
