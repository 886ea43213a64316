package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/syncodehq/syncode/internal/jobs"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/queue/redisclient"
)

type fakeQueue struct {
	mu    sync.Mutex
	items [][]byte
}

func (q *fakeQueue) Enqueue(ctx context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, payload)

	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	q.mu.Lock()

	if len(q.items) > 0 {
		b := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		return b, nil
	}

	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, redisclient.ErrEmpty
	}
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

type fakeNotifier struct {
	mu   sync.Mutex
	fn   func(in notifications.SendPasswordResetInput) error
	sent []notifications.SendPasswordResetInput
}

func (f *fakeNotifier) SendPasswordReset(ctx context.Context, in notifications.SendPasswordResetInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, in)

	if f.fn != nil {
		return f.fn(in)
	}

	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resetJob(t *testing.T) jobs.Job {
	t.Helper()

	payload, err := jobs.EncodePayload(jobs.JobSendPasswordReset, jobs.SendPasswordResetPayload{
		Email:    "ana@test.com",
		Name:     "Ana",
		ResetURL: "https://app.example.com/reset-password/tok",
	})

	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	j, err := jobs.NewJob(jobs.JobSendPasswordReset, payload)

	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	return j
}

func TestExecuteDispatchesToNotifier(t *testing.T) {
	notifier := &fakeNotifier{}
	w := New(Config{Queue: "q"}, &fakeQueue{}, notifier, nil, discardLogger())

	if err := w.execute(context.Background(), resetJob(t)); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if notifier.sentCount() != 1 {
		t.Fatalf("notifier called %d times, want 1", notifier.sentCount())
	}

	if got := notifier.sent[0].Email; got != "ana@test.com" {
		t.Errorf("email = %q", got)
	}
}

func TestProcessOneStopsAtMaxTries(t *testing.T) {
	q := &fakeQueue{}
	notifier := &fakeNotifier{
		fn: func(notifications.SendPasswordResetInput) error {
			return errors.New("provider down")
		},
	}
	w := New(Config{Queue: "q"}, q, notifier, nil, discardLogger())

	j := resetJob(t)
	j.Attempts = j.MaxTries - 1

	w.processOne(context.Background(), j)

	// the last attempt burned; nothing goes back on the queue
	if q.len() != 0 {
		t.Errorf("queue has %d items, want 0", q.len())
	}
}

func TestRunDeliversQueuedJob(t *testing.T) {
	q := &fakeQueue{}
	notifier := &fakeNotifier{}

	b, err := jobs.EncodeJob(resetJob(t))

	if err != nil {
		t.Fatalf("encode job: %v", err)
	}

	if err := q.Enqueue(context.Background(), "q", b); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(Config{Queue: "q", PollTimeout: 5 * time.Millisecond, WorkerID: "test"}, q, notifier, nil, discardLogger())

	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)

	for notifier.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestRunDropsUndecodableJob(t *testing.T) {
	q := &fakeQueue{}
	notifier := &fakeNotifier{}

	if err := q.Enqueue(context.Background(), "q", []byte("not json")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := New(Config{Queue: "q", PollTimeout: 5 * time.Millisecond, WorkerID: "test"}, q, notifier, nil, discardLogger())

	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if notifier.sentCount() != 0 {
		t.Errorf("notifier called %d times for garbage input, want 0", notifier.sentCount())
	}

	if q.len() != 0 {
		t.Errorf("garbage requeued %d times, want dropped", q.len())
	}
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	jitter := 250 * time.Millisecond

	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{20, 5 * time.Minute},
	}

	for _, tc := range cases {
		got := ExponentialBackoff(tc.attempt)

		if got < tc.base || got > tc.base+jitter {
			t.Errorf("attempt %d: backoff = %v, want within [%v, %v]", tc.attempt, got, tc.base, tc.base+jitter)
		}
	}
}
