package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"

	"vigil/internal/config"
	"vigil/internal/logger"
	"vigil/internal/metrics"
	"vigil/internal/models"
)

// Consumer streams sensor readings from Kafka into a channel feeding the
// evaluation loop. Malformed or invalid readings are counted and dropped,
// never fatal.
type Consumer struct {
	reader   *kafka.Reader
	readings chan<- models.SensorReading
}

// NewConsumer builds a reading consumer
func NewConsumer(cfg config.KafkaConfig, readings chan<- models.SensorReading) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.ReadingsTopic,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024, // 10MB
	})

	return &Consumer{
		reader:   reader,
		readings: readings,
	}
}

// Run consumes until the context is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.WithComponent("kafka_consumer")
	log.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("reading consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			log.Error().Err(err).Msg("kafka read failed")
			return err
		}

		var reading models.SensorReading
		if err := json.Unmarshal(msg.Value, &reading); err != nil {
			log.Warn().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("dropping malformed reading")
			metrics.ReadingsConsumedTotal.WithLabelValues("rejected").Inc()
			continue
		}

		reading.Normalize()
		if err := reading.Validate(); err != nil {
			log.Warn().
				Err(err).
				Str("sensor_id", reading.SensorID).
				Msg("dropping invalid reading")
			metrics.ReadingsConsumedTotal.WithLabelValues("rejected").Inc()
			continue
		}

		select {
		case c.readings <- reading:
			metrics.ReadingsConsumedTotal.WithLabelValues("accepted").Inc()
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
