package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"clinic-ai-service/internal/domain"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer emits notification events for the external delivery
// collaborator. The core only guarantees emission, not delivery.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(broker, topic string) *KafkaProducer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      []string{broker},
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
	})
	return &KafkaProducer{writer: writer}
}

// Notify publishes a {recipientUserId, message, type} event, keyed by
// recipient so one user's notifications stay ordered.
func (kp *KafkaProducer) Notify(event domain.NotificationEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.RecipientUserID), 10)),
		Value: message,
	}
	if err := kp.writer.WriteMessages(context.Background(), msg); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// EnsureTopicExists creates the notifications topic if the broker does
// not auto-create it.
func EnsureTopicExists(broker, topic string) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
