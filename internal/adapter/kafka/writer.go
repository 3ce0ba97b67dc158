// Package kafka publishes assessment events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/config"
	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces assessment events to the configured topic.
// It implements monitor.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the assessment topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one assessment event and writes it synchronously.
func (w *Writer) Publish(ctx context.Context, event domain.AssessmentEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish assessment %s: %w", event.ID, err)
	}
	w.logger.Debug("assessment published", "event_id", event.ID, "level", event.Assessment.Level.String())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an event keyed by its coordinate so every
// assessment of one site lands on the same partition.
func serializeToMessage(event domain.AssessmentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Coordinate.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "level", Value: []byte(event.Assessment.Level.String())},
			{Key: "evaluated_at", Value: []byte(event.Assessment.EvaluatedAt.Format(time.RFC3339))},
		},
		Time: event.PublishedAt,
	}, nil
}
