package dsr

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"placement-crm/backend/internal/models"
)

type stubRunner struct {
	userIDs []int64
}

func (s *stubRunner) GenerateForUser(ctx context.Context, userID int64, date string, force bool) (*models.DSR, UserResult) {
	s.userIDs = append(s.userIDs, userID)
	return nil, UserResult{UserID: userID, Status: "success"}
}

func encodeJobs(t *testing.T, userIDs ...int64) [][]byte {
	t.Helper()
	var items [][]byte
	for _, id := range userIDs {
		raw, err := json.Marshal(Job{UserID: id, Date: "2024-01-15"})
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, raw)
	}
	return items
}

func TestDrainStopsAtLimiterRejection(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	runner := &stubRunner{}
	w := &Worker{Service: runner, Limiter: limiter}

	items := encodeJobs(t, 1, 2, 3)
	remaining := w.drain(context.Background(), items)

	if len(runner.userIDs) != 1 || runner.userIDs[0] != 1 {
		t.Fatalf("ran jobs %v, want only user 1", runner.userIDs)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d items, want 2", len(remaining))
	}
	var job Job
	if err := json.Unmarshal(remaining[0], &job); err != nil || job.UserID != 2 {
		t.Errorf("first remaining item = %+v, want user 2", job)
	}
}

func TestDrainRunsWholeBatchUnderCapacity(t *testing.T) {
	runner := &stubRunner{}
	w := &Worker{Service: runner, Limiter: NewLimiter(10, time.Minute)}

	remaining := w.drain(context.Background(), encodeJobs(t, 1, 2, 3))

	if remaining != nil {
		t.Fatalf("remaining = %v, want nil", remaining)
	}
	if len(runner.userIDs) != 3 {
		t.Errorf("ran %d jobs, want 3", len(runner.userIDs))
	}
}

func TestDrainSkipsMalformedItems(t *testing.T) {
	runner := &stubRunner{}
	w := &Worker{Service: runner, Limiter: NewLimiter(10, time.Minute)}

	items := [][]byte{[]byte("not json")}
	items = append(items, encodeJobs(t, 7)...)

	if remaining := w.drain(context.Background(), items); remaining != nil {
		t.Fatalf("remaining = %v, want nil", remaining)
	}
	if len(runner.userIDs) != 1 || runner.userIDs[0] != 7 {
		t.Errorf("ran jobs %v, want only user 7", runner.userIDs)
	}
}

func TestWaitReturnsOnCancel(t *testing.T) {
	w := &Worker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if w.wait(ctx, 5*time.Second) {
		t.Fatal("wait returned true for a cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait blocked %s after cancellation", elapsed)
	}
}
