package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/meridian-lang/greenrt"
)

// StatsProvider provides current runtime stats snapshots.
// *greenrt.Runtime satisfies it.
type StatsProvider interface {
	Stats() greenrt.Stats
}

// SnapshotPoller periodically feeds a runtime's Stats() snapshots into an
// [Exporter]'s gauges.
type SnapshotPoller struct {
	interval time.Duration
	exporter *Exporter
	provider StatsProvider

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a poller. interval <= 0 defaults to one
// second.
func NewSnapshotPoller(exporter *Exporter, provider StatsProvider, interval time.Duration) *SnapshotPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &SnapshotPoller{
		interval: interval,
		exporter: exporter,
		provider: provider,
	}
}

// Start begins polling. Subsequent calls while running are no-ops.
func (p *SnapshotPoller) Start() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.exporter.Record(p.provider.Stats())
			case <-ctx.Done():
				return
			}
		}
	}(p.done)
}

// Stop halts polling and waits for the poll goroutine to exit.
func (p *SnapshotPoller) Stop() {
	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	cancel()
	<-done
}
