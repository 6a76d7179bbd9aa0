package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"vigil/internal/logger"
	"vigil/internal/metrics"
	"vigil/internal/models"
)

// Publisher defines the interface for publishing alert instances
type Publisher interface {
	Publish(ctx context.Context, inst *models.AlertInstance) error
	PublishBatch(ctx context.Context, instances []*models.AlertInstance) error
}

// Pool drains triggered alert instances from a channel and publishes them to
// Kafka in batches, so a slow broker never delays the evaluation loop.
type Pool struct {
	publisher    Publisher
	alertChan    chan *models.AlertInstance
	workers      int
	batchSize    int
	batchTimeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	published atomic.Uint64
	failed    atomic.Uint64
}

// Config holds worker pool configuration
type Config struct {
	Publisher    Publisher
	AlertChan    chan *models.AlertInstance
	Workers      int
	BatchSize    int
	BatchTimeout time.Duration
}

// NewPool creates a new alert publish pool
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		publisher:    cfg.Publisher,
		alertChan:    cfg.AlertChan,
		workers:      cfg.Workers,
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins draining the alert channel
func (p *Pool) Start() {
	log := logger.WithComponent("alert_publisher")
	log.Info().
		Int("workers", p.workers).
		Int("batch_size", p.batchSize).
		Dur("batch_timeout", p.batchTimeout).
		Msg("starting alert publish pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop flushes in-flight batches and stops all workers
func (p *Pool) Stop() {
	log := logger.WithComponent("alert_publisher")
	log.Info().Msg("stopping alert publish pool")
	p.cancel()
	p.wg.Wait()
	log.Info().Msg("alert publish pool stopped")
}

// worker accumulates alerts into batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := logger.WithComponent("alert_publisher").With().Int("worker_id", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("alert_publisher").Inc()
		}
	}()

	batch := make([]*models.AlertInstance, 0, p.batchSize)
	timer := time.NewTimer(p.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			if len(batch) > 0 {
				p.publishBatch(batch)
			}
			return

		case inst, ok := <-p.alertChan:
			if !ok {
				if len(batch) > 0 {
					p.publishBatch(batch)
				}
				return
			}

			batch = append(batch, inst)
			metrics.AlertQueueSize.Set(float64(len(p.alertChan)))

			if len(batch) >= p.batchSize {
				p.publishBatch(batch)
				batch = batch[:0]
				timer.Reset(p.batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				p.publishBatch(batch)
				batch = batch[:0]
			}
			timer.Reset(p.batchTimeout)
		}
	}
}

// publishBatch publishes a batch, falling back to individual publishes when
// the whole batch fails.
func (p *Pool) publishBatch(batch []*models.AlertInstance) {
	if len(batch) == 0 {
		return
	}

	log := logger.WithComponent("alert_publisher")
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := p.publisher.PublishBatch(ctx, batch)
	duration := time.Since(start)

	metrics.PublishBatchDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(batch)).
			Dur("duration", duration).
			Msg("failed to publish alert batch")

		p.failed.Add(uint64(len(batch)))
		metrics.AlertsPublishFailedTotal.Add(float64(len(batch)))

		p.publishIndividually(batch)
		return
	}

	log.Debug().
		Int("batch_size", len(batch)).
		Dur("duration", duration).
		Msg("alert batch published")

	p.published.Add(uint64(len(batch)))
	metrics.AlertsPublishedTotal.Add(float64(len(batch)))
}

// publishIndividually retries each alert separately (fallback)
func (p *Pool) publishIndividually(batch []*models.AlertInstance) {
	log := logger.WithComponent("alert_publisher")
	log.Warn().Int("count", len(batch)).Msg("attempting individual publish for failed batch")

	for _, inst := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.publisher.Publish(ctx, inst)
		cancel()

		if err != nil {
			log.Error().
				Err(err).
				Str("alert_id", inst.ID).
				Msg("failed to publish alert individually")
			continue
		}

		// Moved from failed to published
		p.failed.Add(^uint64(0))
		p.published.Add(1)
	}
}

// Stats returns pool statistics
func (p *Pool) Stats() Stats {
	return Stats{
		Published: p.published.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats holds pool metrics
type Stats struct {
	Published uint64
	Failed    uint64
}
