package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka message header names.
const (
	HeaderEventType = "event-type"
	HeaderTenantID  = "tenant-id"
)

// DefaultTopic receives every forwarded event when no topic is configured.
const DefaultTopic = "clinic.events"

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder is a wildcard event handler that publishes every event to a
// Kafka topic, keyed by tenant so one clinic's events stay ordered.
type KafkaForwarder struct {
	writer       MessageWriter
	serializer   *EventSerializer
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaWriter builds a writer for the configured brokers and topic.
func NewKafkaWriter(cfg config.EventConfig) (*kafka.Writer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.KafkaWriteTimeout,
	}, nil
}

// NewKafkaForwarder creates a forwarder writing through writer.
func NewKafkaForwarder(writer MessageWriter, serializer *EventSerializer, writeTimeout time.Duration, logger *zap.Logger) *KafkaForwarder {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaForwarder{
		writer:       writer,
		serializer:   serializer,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// EventTypes returns nil: the forwarder receives every event.
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle serializes the event and writes it to Kafka.
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	value, err := f.serializer.Serialize(event)
	if err != nil {
		return err
	}
	tenantID := event.TenantID().String()

	// The request context may already be cancelled once the response is sent.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.writeTimeout)
	defer cancel()

	err = f.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(tenantID),
		Value: value,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType())},
			{Key: HeaderTenantID, Value: []byte(tenantID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s to kafka: %w", event.EventType(), err)
	}
	f.logger.Debug("Event forwarded to kafka",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()))
	return nil
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
