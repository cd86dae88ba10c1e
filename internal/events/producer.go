package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ha-tools/portfolio-tracker/internal/models"
)

// Producer publishes operation completion events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a Kafka producer for completion events
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishSyncCompleted publishes the outcome of a spreadsheet sync
func (p *Producer) PublishSyncCompleted(ctx context.Context, result models.SyncResult) error {
	event := models.CompletionEvent{
		EventType: models.EventPortfolioUpdated,
		Status:    "success",
		Payload:   result,
		Timestamp: time.Now(),
	}
	if !result.Success {
		event.Status = "error"
		event.Error = result.Error
	}
	return p.publish(ctx, models.EventPortfolioUpdated, event)
}

// PublishAnalyticsCompleted publishes the outcome of an analytics run
func (p *Producer) PublishAnalyticsCompleted(ctx context.Context, result models.AnalyticsResult) error {
	event := models.CompletionEvent{
		EventType: models.EventAnalyticsCompleted,
		Status:    "success",
		Payload:   result,
		Timestamp: time.Now(),
	}
	if result.Error != "" {
		event.Status = "error"
		event.Error = result.Error
	}
	return p.publish(ctx, models.EventAnalyticsCompleted, event)
}

// PublishStatusRetrieved publishes a system status report
func (p *Producer) PublishStatusRetrieved(ctx context.Context, status models.SystemStatus) error {
	event := models.CompletionEvent{
		EventType: models.EventStatusRetrieved,
		Status:    "success",
		Payload:   status,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, models.EventStatusRetrieved, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.CompletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
