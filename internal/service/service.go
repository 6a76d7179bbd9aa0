// Package service wires the evaluation engine into a long-running process:
// Kafka reading intake, a scheduled evaluation loop, alert publishing, and
// the HTTP API.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/internal/config"
	"vigil/internal/engine"
	"vigil/internal/handlers"
	"vigil/internal/kafka"
	"vigil/internal/logger"
	"vigil/internal/metrics"
	"vigil/internal/middleware"
	"vigil/internal/models"
	"vigil/internal/notify"
	"vigil/internal/state"
	"vigil/internal/storage"
	"vigil/internal/worker"
)

// Service is the high-level coordinator for consuming readings, evaluating
// configurations, and publishing alerts.
type Service struct {
	cfg *config.Config

	db          *sql.DB
	cache       *state.RedisCache
	engine      *engine.Engine
	alertStore  *storage.AlertStore
	configStore *storage.ConfigStore
	producer    *kafka.Producer
	consumer    *kafka.Consumer
	pool        *worker.Pool
	httpServer  *http.Server

	buffer      *readingBuffer
	readingChan chan models.SensorReading
	alertChan   chan *models.AlertInstance
	wg          sync.WaitGroup
}

// New constructs a Service with the given config
func New(cfg *config.Config) *Service {
	return &Service{
		cfg:         cfg,
		buffer:      newReadingBuffer(100000, 24*time.Hour),
		readingChan: make(chan models.SensorReading, 1000),
		alertChan:   make(chan *models.AlertInstance, 500),
	}
}

// Run starts background goroutines and blocks until context cancelled
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("service")
	log.Info().Msg("service starting")

	if err := s.initStores(ctx); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}

	if err := s.initEngine(); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := s.initKafka(); err != nil {
		return fmt.Errorf("failed to initialize kafka: %w", err)
	}

	s.pool = worker.NewPool(worker.Config{
		Publisher:    s.producer,
		AlertChan:    s.alertChan,
		Workers:      2,
		BatchSize:    s.cfg.Kafka.Producer.BatchSize,
		BatchTimeout: s.cfg.Kafka.Producer.BatchTimeout,
	})
	s.pool.Start()

	s.initHTTPServer()

	// Reading intake
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.consumer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("reading consumer exited")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.bufferReadings(ctx)
	}()

	// Evaluation loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.evaluationLoop(ctx)
	}()

	// HTTP server
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTP.Addr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initStores opens Postgres and Redis. Redis is optional: without it
// baselines are recomputed every tick.
func (s *Service) initStores(ctx context.Context) error {
	log := logger.WithComponent("service")

	db, err := storage.Open(s.cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	s.db = db
	s.alertStore = storage.NewAlertStore(db)
	s.configStore = storage.NewConfigStore(db)

	cache := state.NewRedisCache(s.cfg.Redis.Addr)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", s.cfg.Redis.Addr).Msg("redis unavailable, baseline cache disabled")
		_ = cache.Close()
	} else {
		s.cache = cache
		log.Info().Str("addr", s.cfg.Redis.Addr).Msg("baseline cache connected")
	}

	return nil
}

// initEngine wires the engine with its collaborators
func (s *Service) initEngine() error {
	dispatcher := notify.NewWebhookDispatcher(s.cfg.Engine.CollaboratorTimeout)
	readings := storage.NewReadingStore(s.db)

	var cache engine.BaselineCache
	if s.cache != nil {
		cache = s.cache
	}

	s.engine = engine.New(readings, s.alertStore, dispatcher, cache, engine.Options{
		MaxConcurrency:      s.cfg.Engine.MaxConcurrency,
		ConfigTimeout:       s.cfg.Engine.ConfigTimeout,
		CollaboratorTimeout: s.cfg.Engine.CollaboratorTimeout,
	})
	return nil
}

// initKafka creates the alert producer and the reading consumer
func (s *Service) initKafka() error {
	log := logger.WithComponent("service")

	producer, err := kafka.NewProducer(s.cfg.Kafka.Brokers, s.cfg.Kafka.AlertsTopic, s.cfg.Kafka.Producer)
	if err != nil {
		return err
	}
	s.producer = producer
	s.consumer = kafka.NewConsumer(s.cfg.Kafka, s.readingChan)

	log.Info().
		Strs("brokers", s.cfg.Kafka.Brokers).
		Str("readings_topic", s.cfg.Kafka.ReadingsTopic).
		Str("alerts_topic", s.cfg.Kafka.AlertsTopic).
		Msg("kafka initialized")
	return nil
}

// initHTTPServer builds the API mux
func (s *Service) initHTTPServer() {
	mux := http.NewServeMux()

	evaluateHandler := handlers.NewEvaluateHandler(s.engine, s.cfg.HTTP.MaxBodySize)
	mux.Handle("/evaluate", middleware.Chain(
		evaluateHandler,
		middleware.Recovery,
		middleware.Logging,
		middleware.Auth(s.cfg.APIKey),
	))

	validateHandler := handlers.NewValidateHandler(s.cfg.HTTP.MaxBodySize)
	mux.Handle("/validate", middleware.Chain(
		validateHandler,
		middleware.Recovery,
		middleware.Logging,
		middleware.Auth(s.cfg.APIKey),
	))

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	metrics.AlertQueueCapacity.Set(float64(cap(s.alertChan)))

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// bufferReadings moves consumed readings into the evaluation buffer
func (s *Service) bufferReadings(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-s.readingChan:
			if !ok {
				return
			}
			s.buffer.Add(r)
		}
	}
}

// evaluationLoop runs a batch evaluation every interval
func (s *Service) evaluationLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Engine.EvaluationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runBatch(ctx)
		}
	}
}

// runBatch loads active configurations and evaluates them against the
// current reading buffer.
func (s *Service) runBatch(ctx context.Context) {
	log := logger.WithComponent("service")

	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	configs, err := s.configStore.ListActive(loadCtx)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configurations, skipping batch")
		return
	}
	if len(configs) == 0 {
		return
	}

	now := time.Now().UTC()
	evalCtx := &models.EvaluationContext{
		CurrentTime:    now,
		SensorReadings: s.buffer.Snapshot(now),
		SystemStatus:   models.SystemStatus{Healthy: true},
	}

	res := s.engine.EvaluateBatch(ctx, configs, evalCtx)

	// Suppressed duplicates are already persisted and published; only the
	// instances created this pass go to the store and the alerts topic.
	for _, inst := range res.Created {
		// Persist first so dedup sees the instance on the next tick even if
		// publishing lags.
		storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.alertStore.Create(storeCtx, inst); err != nil {
			log.Error().Err(err).Str("alert_id", inst.ID).Msg("failed to persist alert instance")
		}
		cancel()

		select {
		case s.alertChan <- inst:
		default:
			log.Warn().Str("alert_id", inst.ID).Msg("alert publish queue full, dropping")
			metrics.AlertsPublishFailedTotal.Inc()
		}
	}
}

// shutdown performs graceful shutdown: HTTP first, then the publish
// pipeline, then the stores.
func (s *Service) shutdown() error {
	log := logger.WithComponent("service")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := s.consumer.Close(); err != nil {
		log.Error().Err(err).Msg("consumer close error")
	}

	close(s.alertChan)

	done := make(chan struct{})
	go func() {
		s.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("publish pool stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("publish pool shutdown timeout - forcing exit")
	}

	if err := s.producer.Close(); err != nil {
		log.Error().Err(err).Msg("producer close error")
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Error().Err(err).Msg("cache close error")
		}
	}

	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	s.wg.Wait()

	log.Info().Msg("service stopped gracefully")
	return nil
}

// healthHandler handles health check requests
func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.producer.HealthCheck(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}
	if err := s.db.PingContext(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	poolStats := s.pool.Stats()
	producerStats := s.producer.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"publisher": {
			"published": %d,
			"failed": %d
		},
		"producer": {
			"published": %d,
			"failed": %d
		},
		"buffer": {
			"readings": %d
		},
		"queue": {
			"buffered": %d,
			"capacity": %d
		}
	}`,
		poolStats.Published,
		poolStats.Failed,
		producerStats.Published,
		producerStats.Failed,
		s.buffer.Len(),
		len(s.alertChan),
		cap(s.alertChan),
	)
}
