// pkg/kafka/event_producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

const (
	TopicUserSignIn          = "user.signin"
	TopicOnboardingCompleted = "user.onboarding.completed"
)

// AuthEvent is the payload published for sign-in and onboarding
// milestones. Downstream consumers (analytics, comms) key on UserID.
type AuthEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Method     string    `json:"method,omitempty"` // password | oauth_code
	OccurredAt time.Time `json:"occurred_at"`
}

type AuthEventProducer struct {
	producer sarama.SyncProducer
}

func NewAuthEventProducer(brokers []string) (*AuthEventProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all replicas
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &AuthEventProducer{producer: producer}, nil
}

func (p *AuthEventProducer) PublishSignIn(ctx context.Context, ev *AuthEvent) error {
	return p.publish(TopicUserSignIn, ev)
}

func (p *AuthEventProducer) PublishOnboardingCompleted(ctx context.Context, ev *AuthEvent) error {
	return p.publish(TopicOnboardingCompleted, ev)
}

func (p *AuthEventProducer) publish(topic string, ev *AuthEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(ev.UserID), // Partition by user
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Printf("[Kafka] %s sent to partition %d at offset %d", topic, partition, offset)
	return nil
}

func (p *AuthEventProducer) Close() error {
	return p.producer.Close()
}
