// greenrt-stress drives the runtime the way compiled programs do: it
// enters a scope, spawns a batch of tasks, pushes their results through a
// bounded channel, and exits the scope. Useful for shaking out scheduler
// regressions and for watching the Prometheus metrics under load.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/meridian-lang/greenrt"
	rtprom "github.com/meridian-lang/greenrt/observability/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	flagWorkers     int
	flagTasks       int
	flagCapacity    int64
	flagMetricsAddr string
)

func main() {
	root := &cobra.Command{
		Use:   "greenrt-stress",
		Short: "Stress the greenrt scheduler, scopes, and channels",
		RunE:  run,
	}
	root.Flags().IntVar(&flagWorkers, "workers", 4, "worker pool size")
	root.Flags().IntVar(&flagTasks, "tasks", 10000, "number of tasks to spawn")
	root.Flags().Int64Var(&flagCapacity, "capacity", 64, "result channel capacity (<=0 for unbounded)")
	root.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts := []greenrt.Option{greenrt.WithWorkers(flagWorkers)}

	var exporter *rtprom.Exporter
	if flagMetricsAddr != "" {
		var err error
		exporter, err = rtprom.NewExporter("greenrt", nil, rtprom.ExporterOptions{})
		if err != nil {
			return err
		}
		opts = append(opts, greenrt.WithOnTaskDone(exporter.TaskDoneHook()))

		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(flagMetricsAddr, nil); err != nil {
				slog.Error("metrics server stopped", slog.Any("err", err))
			}
		}()
	}

	rt := greenrt.New(opts...)
	defer rt.Shutdown()

	if exporter != nil {
		poller := rtprom.NewSnapshotPoller(exporter, rt, time.Second)
		poller.Start()
		defer poller.Stop()
	}

	tc := rt.Root()
	results := greenrt.NewChannel[int64](int(flagCapacity))

	start := time.Now()
	sum := int64(0)

	sc := rt.EnterScope(tc)
	consumer := greenrt.Spawn(tc, func(_ *greenrt.TaskContext) int64 {
		var total int64
		for {
			v, ok := results.Recv()
			if !ok {
				return total
			}
			total += v
		}
	})
	producers := rt.EnterScope(tc)
	for i := 0; i < flagTasks; i++ {
		i := int64(i)
		greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool {
			return results.Send(i) == nil
		})
	}
	rt.ExitScope(tc, producers)
	results.Close()
	sum = consumer.Await(tc)
	rt.ExitScope(tc, sc)

	elapsed := time.Since(start)
	stats := rt.Stats()
	fmt.Printf("spawned %d tasks on %d workers in %s (sum=%d, stolen=%d)\n",
		stats.Spawned, stats.Workers, elapsed, sum, stats.Stolen)
	return nil
}
