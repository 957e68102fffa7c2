package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Record serializes audit events and writes them to the audit topic.
// Payment events are keyed by payment ID so every event of a payment
// lands on the same partition; registry events are keyed by provider key.
func (k *KafkaPublisher) Record(ctx context.Context, events ...domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	km := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := json.Marshal(event)
		if err != nil {
			return err
		}

		key := event.PaymentID
		if key == "" {
			key = event.ProviderKey
		}

		km = append(km, kafka.Message{
			Key:   []byte(key),
			Value: msg,
			Time:  time.Now(),
			Topic: domain.AuditTopic,
		})
	}

	return k.writer.WriteMessages(ctx, km...)
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
