package orchestration

import "sync"

// taskQueue runs tasks one at a time in submission order on a worker
// goroutine that exists only while work is pending.
//
// Task errors and panics are logged and never stop the queue.
type taskQueue struct {
	mu      sync.Mutex
	pending []func() error
	running bool

	// onIdle runs on the worker after the last pending task completes.
	onIdle func()
}

func newTaskQueue(onIdle func()) *taskQueue {
	return &taskQueue{onIdle: onIdle}
}

func (q *taskQueue) Enqueue(task func() error) {
	if task == nil {
		return
	}

	q.mu.Lock()
	q.pending = append(q.pending, task)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	go q.run()
}

// Empty discards every task that has not started yet. A running task is
// left to finish.
func (q *taskQueue) Empty() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.pending)
	q.pending = nil
}

// Idle reports whether no task is running or pending.
func (q *taskQueue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.running && len(q.pending) == 0
}

// Len returns the number of tasks waiting to start.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *taskQueue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			onIdle := q.onIdle
			q.mu.Unlock()
			if onIdle != nil {
				onIdle()
			}
			return
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := panicSafe("queued task", task); err != nil {
			logger.Debug("queued task did not complete", "error", err)
		}
	}
}
