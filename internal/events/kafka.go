package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

// KafkaPublisher writes checkout state changes to a single topic, keyed by
// checkout session so one session's events stay ordered. Writes are async:
// Publish only enqueues, and delivery failures are logged on completion.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: 5 * time.Second,
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			Async:        true,
			Completion:   logCompletion,
			Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				telemetry.Logger.Debug(fmt.Sprintf(msg, args...))
			}),
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				telemetry.Logger.Error(fmt.Sprintf(msg, args...))
			}),
		},
	}
}

func logCompletion(messages []kafka.Message, err error) {
	for _, msg := range messages {
		if err != nil {
			telemetry.Logger.Error("Failed to deliver checkout event to Kafka",
				zap.String("topic", msg.Topic),
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
			continue
		}
		telemetry.Logger.Debug("Checkout event delivered",
			zap.String("topic", msg.Topic),
			zap.String("key", string(msg.Key)),
		)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		telemetry.Logger.Error("Failed to publish event to Kafka",
			zap.String("topic", p.writer.Topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("publish to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
