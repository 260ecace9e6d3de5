// Package kafka dispatches notification payloads to a Kafka topic, for
// deployments that route delivery through a consumer instead of Lambda.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// Notifier implements domain.NotificationExecutor by publishing to the
// notifications topic. A successful write means the broker accepted the
// message; delivery to the user happens downstream.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the notifications topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Notifier{writer: w, logger: logger}
}

// InvokeAsync publishes the payload with a fresh message key.
func (n *Notifier) InvokeAsync(ctx context.Context, payload []byte) error {
	if err := n.writer.WriteMessages(ctx, newMessage(payload)); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

func newMessage(payload []byte) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(uuid.NewString()),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "notification_type", Value: []byte(domain.NotificationTypeWeatherAlert)},
			{Key: "dispatched_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}
}
