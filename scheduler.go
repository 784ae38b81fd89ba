package greenrt

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// scheduler runs ready tasks across a fixed set of workers. Each worker
// owns a deque; submissions from a worker go onto its own deque (fast
// path), submissions from outside the pool go through the injector channel.
// Idle workers pop locally, steal round-robin from siblings, drain the
// injector, then park until new work arrives.
type scheduler struct {
	rt      *Runtime
	workers []*worker

	injector chan *Task
	shutdown chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup

	mu     sync.Mutex
	parked []*worker

	submitted atomic.Int64
	executed  atomic.Int64
	stolen    atomic.Int64

	// parkedCount mirrors len(parked); written under mu, read atomically
	// by Stats so the gauge never runs ahead of the list.
	parkedCount atomic.Int64
}

type worker struct {
	idx   int
	sched *scheduler
	dq    deque

	// wake carries at most one pending wakeup; extra signals coalesce.
	wake chan struct{}
}

func newScheduler(rt *Runtime, workerCount, injectorSize int) *scheduler {
	s := &scheduler{
		rt:       rt,
		injector: make(chan *Task, injectorSize),
		shutdown: make(chan struct{}),
	}
	s.workers = make([]*worker, workerCount)
	for i := range s.workers {
		s.workers[i] = &worker{
			idx:   i,
			sched: s,
			wake:  make(chan struct{}, 1),
		}
	}
	s.wg.Add(workerCount)
	for _, w := range s.workers {
		go w.loop()
	}
	slog.Debug("greenrt: scheduler started", slog.Int("workers", workerCount))
	return s
}

// submit enqueues a ready task. from is the worker executing the spawning
// task, or nil when spawning from outside the pool.
func (s *scheduler) submit(t *Task, from *worker) {
	if s.stopped.Load() {
		panic("greenrt: spawn after runtime shutdown")
	}
	s.submitted.Add(1)

	if from != nil {
		from.dq.push(t)
		s.wakeOne()
		return
	}

	select {
	case s.injector <- t:
	case <-s.shutdown:
		panic("greenrt: spawn after runtime shutdown")
	}
	s.wakeOne()
}

// wakeOne unparks one parked worker, if any.
func (s *scheduler) wakeOne() {
	s.mu.Lock()
	n := len(s.parked)
	if n == 0 {
		s.mu.Unlock()
		return
	}
	w := s.parked[n-1]
	s.parked = s.parked[:n-1]
	s.parkedCount.Add(-1)
	s.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// pending reports whether any queue holds work. Used to close the window
// between a worker's empty scan and its park.
func (s *scheduler) pending() bool {
	if len(s.injector) > 0 {
		return true
	}
	for _, w := range s.workers {
		if w.dq.len() > 0 {
			return true
		}
	}
	return false
}

// queueDepth returns the total number of queued (not yet running) tasks.
func (s *scheduler) queueDepth() int {
	depth := len(s.injector)
	for _, w := range s.workers {
		depth += w.dq.len()
	}
	return depth
}

// stop signals all workers to drain their queues and exit, then waits for
// them. Outstanding unclosed scopes are not waited on; process teardown is
// abrupt by design.
func (s *scheduler) stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.shutdown)

	s.mu.Lock()
	parked := s.parked
	s.parked = nil
	s.parkedCount.Store(0)
	s.mu.Unlock()
	for _, w := range parked {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}

	s.wg.Wait()
	slog.Debug("greenrt: scheduler stopped",
		slog.Int64("executed", s.executed.Load()),
		slog.Int64("stolen", s.stolen.Load()))
}

func (w *worker) loop() {
	s := w.sched
	defer s.wg.Done()

	for {
		if t, ok := w.next(); ok {
			w.run(t)
			continue
		}

		select {
		case <-s.shutdown:
			w.drain()
			return
		default:
		}

		if !w.park() {
			w.drain()
			return
		}
	}
}

// next finds the next task: own deque first, then a round-robin steal from
// siblings, then the injector.
func (w *worker) next() (*Task, bool) {
	if t, ok := w.dq.pop(); ok {
		return t, true
	}

	s := w.sched
	for i := 1; i < len(s.workers); i++ {
		victim := s.workers[(w.idx+i)%len(s.workers)]
		if t, ok := victim.dq.steal(); ok {
			s.stolen.Add(1)
			return t, true
		}
	}

	select {
	case t := <-s.injector:
		return t, true
	default:
		return nil, false
	}
}

// park blocks until woken. It returns false when the scheduler is shutting
// down. Registering in the parked list before the final pending() check
// closes the race with a submit that saw no parked workers.
func (w *worker) park() bool {
	s := w.sched

	s.mu.Lock()
	s.parked = append(s.parked, w)
	s.parkedCount.Add(1)
	s.mu.Unlock()

	if s.pending() {
		s.wakeOne()
	}

	select {
	case <-w.wake:
		return true
	case <-s.shutdown:
		return false
	}
}

// drain runs every remaining queued task, then returns.
func (w *worker) drain() {
	for {
		t, ok := w.next()
		if !ok {
			return
		}
		w.run(t)
	}
}

func (w *worker) run(t *Task) {
	w.sched.executed.Add(1)
	tc := &TaskContext{rt: w.sched.rt, task: t, worker: w}
	t.run(tc)
}
