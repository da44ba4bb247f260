// Package kafka publishes hotspot summaries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-hotspots/internal/config"
	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per hotspot cell, keyed by the cell index so
// that updates for the same cell land on the same partition.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSummaries writes all summaries in a single batch.
func (w *Writer) PublishSummaries(ctx context.Context, summaries []domain.HotspotSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(summaries))
	for _, s := range summaries {
		msg, err := summaryMessage(s)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d summaries: %w", len(msgs), err)
	}
	w.logger.Debug("hotspot summaries published", "count", len(msgs))
	return nil
}

// Close flushes pending messages and releases the broker connections.
func (w *Writer) Close() error {
	return w.writer.Close()
}

func summaryMessage(s domain.HotspotSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize summary %s: %w", s.Cell, err)
	}
	return kafkago.Message{
		Key:   []byte(s.Cell),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "resolution", Value: []byte(strconv.Itoa(s.Resolution))},
			{Key: "generated_at", Value: []byte(s.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
