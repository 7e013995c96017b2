// Package events publishes anonymized prediction outcomes to Kafka for
// downstream monitoring. Events never carry raw uploads or extracted
// biomarkers, only the decision summary.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/neuroscreen-ai/inference/pkg/common/logger"
	"github.com/neuroscreen-ai/inference/pkg/observability/metrics"
	"github.com/segmentio/kafka-go"
)

// PredictionEvent is the wire shape of one completed prediction.
type PredictionEvent struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	InputType   string    `json:"input_type"`
	Detected    bool      `json:"parkinson_detected"`
	RiskLevel   string    `json:"risk_level"`
	Probability float64   `json:"probability_parkinson"`
	LatencyMS   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: writer}
}

// Publish writes the event to the broker. Failures are logged and
// counted, never surfaced to the caller: the prediction response does
// not depend on the broker.
func (p *Publisher) Publish(ctx context.Context, event PredictionEvent) {
	event.ID = uuid.New().String()
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to marshal prediction event")
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}

	message := kafka.Message{
		Key:   []byte(event.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("prediction.completed")},
			{Key: "input-type", Value: []byte(event.InputType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"request_id": event.RequestID,
		}).Error("Failed to publish prediction event")
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}

	metrics.EventsPublished.WithLabelValues("ok").Inc()
	logger.Log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"request_id": event.RequestID,
		"topic":      p.writer.Topic,
	}).Debug("Prediction event published")
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
