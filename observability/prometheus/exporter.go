// Package prometheus exports greenrt runtime activity as Prometheus
// collectors: task durations and fault counts from the lifecycle hooks,
// and scheduler/registry gauges from periodic [greenrt.Stats] snapshots.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/meridian-lang/greenrt"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter adapts greenrt observability hooks and snapshots to Prometheus
// collectors. Wire it into a runtime via [Exporter.TaskDoneHook] and a
// [SnapshotPoller].
type Exporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskFaultTotal      prom.Counter

	tasksSpawned  prom.Gauge
	tasksStolen   prom.Gauge
	queueDepth    prom.Gauge
	parkedWorkers prom.Gauge
	liveTasks     prom.Gauge
	liveScopes    prom.Gauge
	liveChannels  prom.Gauge
}

// NewExporter creates and registers collectors for runtime activity.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "greenrt"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"kind"})
	faultTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_fault_total",
		Help:      "Total number of task faults.",
	})
	tasksSpawned := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_spawned",
		Help:      "Total tasks spawned, from the latest snapshot.",
	})
	tasksStolen := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_stolen",
		Help:      "Total tasks stolen across workers, from the latest snapshot.",
	})
	queueDepth := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Tasks queued and not yet running.",
	})
	parkedWorkers := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "parked_workers",
		Help:      "Workers currently parked.",
	})
	liveTasks := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_tasks",
		Help:      "Tasks not yet released by their scope.",
	})
	liveScopes := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_scopes",
		Help:      "Scopes entered and not yet exited.",
	})
	liveChannels := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "live_channels",
		Help:      "Channels in the runtime registry.",
	})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if faultTotal, err = registerCollector(reg, faultTotal); err != nil {
		return nil, err
	}
	if tasksSpawned, err = registerCollector(reg, tasksSpawned); err != nil {
		return nil, err
	}
	if tasksStolen, err = registerCollector(reg, tasksStolen); err != nil {
		return nil, err
	}
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}
	if parkedWorkers, err = registerCollector(reg, parkedWorkers); err != nil {
		return nil, err
	}
	if liveTasks, err = registerCollector(reg, liveTasks); err != nil {
		return nil, err
	}
	if liveScopes, err = registerCollector(reg, liveScopes); err != nil {
		return nil, err
	}
	if liveChannels, err = registerCollector(reg, liveChannels); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds: durationVec,
		taskFaultTotal:      faultTotal,
		tasksSpawned:        tasksSpawned,
		tasksStolen:         tasksStolen,
		queueDepth:          queueDepth,
		parkedWorkers:       parkedWorkers,
		liveTasks:           liveTasks,
		liveScopes:          liveScopes,
		liveChannels:        liveChannels,
	}, nil
}

// TaskDoneHook returns a callback suitable for [greenrt.WithOnTaskDone].
// It records task duration by result kind and counts faults.
func (e *Exporter) TaskDoneHook() func(greenrt.TaskInfo, error, time.Duration) {
	return func(info greenrt.TaskInfo, err error, d time.Duration) {
		if e == nil {
			return
		}
		e.taskDurationSeconds.WithLabelValues(info.Kind.String()).Observe(d.Seconds())
		if err != nil {
			e.taskFaultTotal.Inc()
		}
	}
}

// Record sets the snapshot gauges from a [greenrt.Stats] snapshot.
func (e *Exporter) Record(s greenrt.Stats) {
	if e == nil {
		return
	}
	e.tasksSpawned.Set(float64(s.Spawned))
	e.tasksStolen.Set(float64(s.Stolen))
	e.queueDepth.Set(float64(s.QueueDepth))
	e.parkedWorkers.Set(float64(s.ParkedWorkers))
	e.liveTasks.Set(float64(s.LiveTasks))
	e.liveScopes.Set(float64(s.LiveScopes))
	e.liveChannels.Set(float64(s.LiveChannels))
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
