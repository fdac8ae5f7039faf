package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFilesCountsByOutcome(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.RecordFiles("worker", 3, 1)
	m.RecordFiles("worker", 2, 0)

	completed := testutil.ToFloat64(m.filesTotal.WithLabelValues("worker", "completed"))
	failed := testutil.ToFloat64(m.filesTotal.WithLabelValues("worker", "failed"))
	if completed != 5 {
		t.Fatalf("completed files = %v, want 5", completed)
	}
	if failed != 1 {
		t.Fatalf("failed files = %v, want 1", failed)
	}
}

func TestRecordFilesZeroCountsAddNothing(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.RecordFiles("worker", 0, 0)

	if got := testutil.CollectAndCount(m.filesTotal); got != 0 {
		t.Fatalf("expected no series for zero counts, got %d", got)
	}
}

func TestFinishTaskLabelsByError(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.StartTask()
	m.FinishTask("worker", time.Second, nil)
	m.StartTask()
	m.FinishTask("worker", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.taskTotal.WithLabelValues("worker", "completed")); got != 1 {
		t.Fatalf("completed tasks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.taskTotal.WithLabelValues("worker", "failed")); got != 1 {
		t.Fatalf("failed tasks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.taskInFlight); got != 0 {
		t.Fatalf("in-flight gauge = %v, want 0", got)
	}
}
