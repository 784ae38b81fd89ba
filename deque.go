package greenrt

import "sync"

// deque is a double-ended work queue. The owning worker pushes and pops at
// the back (LIFO, for cache locality); thieves steal from the front (FIFO,
// away from the owner's fast path). A mutex is sufficient here: steals are
// infrequent relative to local pops, so contention stays low.
type deque struct {
	mu    sync.Mutex
	items []*Task
}

// push adds a task at the back (owner end).
func (d *deque) push(t *Task) {
	d.mu.Lock()
	d.items = append(d.items, t)
	d.mu.Unlock()
}

// pop removes the most recently pushed task (owner end).
func (d *deque) pop() (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	t := d.items[n-1]
	d.items[n-1] = nil
	d.items = d.items[:n-1]
	return t, true
}

// steal removes the oldest task (thief end).
func (d *deque) steal() (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, false
	}
	t := d.items[0]
	d.items[0] = nil
	d.items = d.items[1:]
	return t, true
}

func (d *deque) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}
