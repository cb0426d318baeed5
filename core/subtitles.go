package orchestration

import "sync"

// subtitleQueue holds the display text of statements waiting to be spoken,
// in the order they were queued for speech.
type subtitleQueue struct {
	mu      sync.Mutex
	entries []string
}

func (q *subtitleQueue) push(subtitle string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, subtitle)
}

func (q *subtitleQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return "", false
	}
	subtitle := q.entries[0]
	q.entries = q.entries[1:]
	return subtitle, true
}

func (q *subtitleQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
