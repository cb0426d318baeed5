package orchestration

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func waitForCondition(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !condition() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting: %s", message)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTaskQueueRunsTasksInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	idle := make(chan struct{}, 1)
	queue := newTaskQueue(func() {
		select {
		case idle <- struct{}{}:
		default:
		}
	})

	release := make(chan struct{})
	queue.Enqueue(func() error {
		<-release
		mu.Lock()
		order = append(order, 0)
		mu.Unlock()
		return nil
	})
	for i := 1; i < 5; i++ {
		queue.Enqueue(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	close(release)

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected queue to become idle")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("expected task %d at position %d, got %v", i, i, order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 tasks to run, got %d", len(order))
	}
}

func TestTaskQueueEmptyDropsPendingTasks(t *testing.T) {
	queue := newTaskQueue(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var ran sync.Map

	queue.Enqueue(func() error {
		close(started)
		<-release
		ran.Store("running", true)
		return nil
	})
	queue.Enqueue(func() error {
		ran.Store("pending", true)
		return nil
	})

	<-started
	queue.Empty()
	if got := queue.Len(); got != 0 {
		t.Fatalf("expected no pending tasks after Empty, got %d", got)
	}
	close(release)

	waitForCondition(t, queue.Idle, "queue to become idle")
	if _, ok := ran.Load("running"); !ok {
		t.Fatalf("expected the running task to finish")
	}
	if _, ok := ran.Load("pending"); ok {
		t.Fatalf("expected the pending task to be dropped")
	}
}

func TestTaskQueueContinuesAfterFailures(t *testing.T) {
	queue := newTaskQueue(nil)
	done := make(chan struct{})

	queue.Enqueue(func() error { return errors.New("synthesis failed") })
	queue.Enqueue(func() error { panic("boom") })
	queue.Enqueue(func() error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the last task to run after failures")
	}
	waitForCondition(t, queue.Idle, "queue to become idle")
}

func TestTaskQueueRestartsAfterIdle(t *testing.T) {
	queue := newTaskQueue(nil)
	first := make(chan struct{})
	second := make(chan struct{})

	queue.Enqueue(func() error {
		close(first)
		return nil
	})
	<-first
	waitForCondition(t, queue.Idle, "queue to become idle")

	queue.Enqueue(func() error {
		close(second)
		return nil
	})
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a task queued after idle to run")
	}
}
