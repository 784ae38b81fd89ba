package greenrt

// Stats is a point-in-time snapshot of runtime activity. Safe to take
// concurrently with running tasks; counters are read atomically but not as
// one consistent cut.
type Stats struct {
	Workers int // worker count (fixed at creation)

	Spawned   int64 // total tasks spawned
	Completed int64 // tasks finished without fault
	Faulted   int64 // tasks that faulted
	Submitted int64 // tasks handed to the scheduler
	Stolen    int64 // tasks taken from a sibling's deque

	QueueDepth    int   // tasks queued and not yet running
	ParkedWorkers int64 // workers currently parked

	LiveTasks    int // tasks not yet released by their scope
	LiveScopes   int // scopes entered and not yet exited
	LiveChannels int // channels in the registry
}

// Stats returns a snapshot of scheduler and registry counters.
func (rt *Runtime) Stats() Stats {
	rt.tasksMu.RLock()
	liveTasks := len(rt.tasks)
	rt.tasksMu.RUnlock()

	rt.scopesMu.Lock()
	liveScopes := len(rt.scopes)
	rt.scopesMu.Unlock()

	rt.chansMu.RLock()
	liveChannels := len(rt.chans)
	rt.chansMu.RUnlock()

	return Stats{
		Workers:       len(rt.sched.workers),
		Spawned:       rt.tasksSpawned.Load(),
		Completed:     rt.tasksCompleted.Load(),
		Faulted:       rt.tasksFaulted.Load(),
		Submitted:     rt.sched.submitted.Load(),
		Stolen:        rt.sched.stolen.Load(),
		QueueDepth:    rt.sched.queueDepth(),
		ParkedWorkers: rt.sched.parkedCount.Load(),
		LiveTasks:     liveTasks,
		LiveScopes:    liveScopes,
		LiveChannels:  liveChannels,
	}
}
