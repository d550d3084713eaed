package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeRunner struct {
	mu       sync.Mutex
	ran      []string
	block    chan struct{}
	canceled map[string]bool
}

func (r *fakeRunner) RunSession(ctx context.Context, sessionID string) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			r.mu.Lock()
			r.canceled[sessionID] = true
			r.mu.Unlock()
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.ran = append(r.ran, sessionID)
	r.mu.Unlock()
	return nil
}

func TestSchedulerRunsSubmittedSessions(t *testing.T) {
	runner := &fakeRunner{canceled: map[string]bool{}}
	sched, err := NewScheduler(2, time.Minute, runner)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer sched.Stop()

	if err := sched.Submit("s-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := sched.Submit("s-2"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		runner.mu.Lock()
		done := len(runner.ran) == 2
		runner.mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sessions did not complete in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerCancel(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), canceled: map[string]bool{}}
	sched, err := NewScheduler(1, time.Minute, runner)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer sched.Stop()

	if err := sched.Submit("s-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// 等会话进入执行态再取消
	deadline := time.Now().Add(2 * time.Second)
	for sched.Running() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !sched.Cancel("s-1") {
		t.Fatal("Cancel returned false for running session")
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		runner.mu.Lock()
		canceled := runner.canceled["s-1"]
		runner.mu.Unlock()
		if canceled {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session was not canceled")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if sched.Cancel("unknown") {
		t.Error("Cancel should return false for unknown session")
	}
}

func TestSchedulerRejectsAfterStop(t *testing.T) {
	runner := &fakeRunner{canceled: map[string]bool{}}
	sched, err := NewScheduler(1, time.Minute, runner)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	sched.Stop()

	if err := sched.Submit("s-1"); err == nil {
		t.Fatal("expected error after Stop")
	}
}
