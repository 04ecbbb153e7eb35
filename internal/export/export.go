// Package export fans controller snapshots out to optional downstream sinks.
//
// Exports are best-effort: they run after the response data is assembled,
// never fail the request, and report failures through logs and metrics only.
package export

import (
	"context"
	"sync"
	"time"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/logging"
	"github.com/iotnatural/poolwatch-core/internal/metrics"
)

// defaultExportTimeout bounds a single sink export.
const defaultExportTimeout = 10 * time.Second

// Snapshot is the controller data assembled for one user at one instant.
type Snapshot struct {
	UserID      any
	Controllers []database.Record
	At          time.Time
}

// Sink receives snapshots.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Export delivers the snapshot. It must not modify the records.
	Export(ctx context.Context, snap Snapshot) error
}

// Publisher delivers snapshots to every configured sink in the background.
type Publisher struct {
	sinks   []Sink
	logger  *logging.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

// NewPublisher creates a publisher. With no sinks Publish is a no-op.
func NewPublisher(logger *logging.Logger, sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:   sinks,
		logger:  logger,
		timeout: defaultExportTimeout,
	}
}

// Enabled reports whether any sink is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && len(p.sinks) > 0
}

// Publish hands snap to every sink asynchronously and returns immediately.
// Request cancellation does not abort exports already started.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot) {
	if !p.Enabled() || len(snap.Controllers) == 0 {
		return
	}
	if snap.At.IsZero() {
		snap.At = time.Now()
	}

	ctx = context.WithoutCancel(ctx)
	for _, sink := range p.sinks {
		p.wg.Add(1)
		go func(sink Sink) {
			defer p.wg.Done()
			p.export(ctx, sink, snap)
		}(sink)
	}
}

func (p *Publisher) export(ctx context.Context, sink Sink, snap Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordExportError(sink.Name())
			p.logger.Error("export panic recovered", "sink", sink.Name(), "panic", r)
		}
	}()

	if err := sink.Export(ctx, snap); err != nil {
		metrics.RecordExportError(sink.Name())
		p.logger.Warn("snapshot export failed",
			"sink", sink.Name(),
			"controllers", len(snap.Controllers),
			"error", err,
		)
		return
	}

	p.logger.Debug("snapshot exported", "sink", sink.Name(), "controllers", len(snap.Controllers))
}

// Wait blocks until in-flight exports finish.
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}
