package export

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultQueueSize = 256

// appendTimeout bounds a single export call so a slow spreadsheet API
// cannot wedge the worker.
const appendTimeout = 30 * time.Second

type job struct {
	id     string
	values []string
}

// AsyncDispatcher decouples scan ingestion from the export target. Enqueue
// never blocks: when the queue is full the row is dropped and logged, which
// matches the best-effort contract of the export path.
type AsyncDispatcher struct {
	exporter Exporter
	logger   *zap.Logger
	jobs     chan job

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher and starts its single worker.
// queueSize <= 0 selects the default.
func NewAsyncDispatcher(exporter Exporter, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &AsyncDispatcher{
		exporter: exporter,
		logger:   logger,
		jobs:     make(chan job, queueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue hands a row to the worker without blocking the caller
func (d *AsyncDispatcher) Enqueue(values []string) {
	j := job{id: uuid.New().String(), values: values}
	select {
	case d.jobs <- j:
	default:
		d.logger.Warn("export queue full, dropping row", zap.String("job_id", j.id))
	}
}

// Close stops accepting rows and waits for the queued ones to drain
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := d.exporter.AppendRow(ctx, j.values); err != nil {
			d.logger.Warn("export append failed",
				zap.String("job_id", j.id),
				zap.Error(err),
			)
		}
		cancel()
	}
}
