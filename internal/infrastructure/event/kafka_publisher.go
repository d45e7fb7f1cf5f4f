package event

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Message headers set on every published event
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

const defaultPublishTimeout = 2 * time.Second

// MessageWriter is the part of a Kafka writer the publisher needs.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a traced Kafka writer for the configured topic.
// Messages are partitioned by key so one owner's events stay ordered.
func NewKafkaWriter(cfg config.KafkaConfig) (MessageWriter, error) {
	base := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	writer, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(otel.GetTracerProvider()),
		otelkafka.WithPropagator(otel.GetTextMapPropagator()),
		otelkafka.WithAttributes([]attribute.KeyValue{
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", cfg.Topic),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}
	return writer, nil
}

// KafkaEventPublisher writes domain events as JSON messages keyed by owner id.
type KafkaEventPublisher struct {
	writer     MessageWriter
	serializer *EventSerializer
	timeout    time.Duration
	logger     *zap.Logger
}

var _ shared.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher creates a publisher over writer
func NewKafkaEventPublisher(writer MessageWriter, serializer *EventSerializer, logger *zap.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaEventPublisher{
		writer:     writer,
		serializer: serializer,
		timeout:    defaultPublishTimeout,
		logger:     logger.Named("kafka_publisher"),
	}
}

// Publish writes each event as its own message. Publishing is not bound to
// the caller's cancellation, only to the publisher timeout. Every event is
// attempted; the failures are joined.
func (p *KafkaEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	var errs []error
	for _, event := range events {
		msg, err := p.message(event)
		if err == nil {
			err = p.writer.WriteMessage(ctx, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s %s: %w", event.EventType(), event.EventID(), err))
			continue
		}
		p.logger.Debug("Event published",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Int64("owner_id", event.OwnerID()),
		)
	}
	return errors.Join(errs...)
}

func (p *KafkaEventPublisher) message(event shared.DomainEvent) (kafka.Message, error) {
	payload, err := p.serializer.Serialize(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OwnerID(), 10)),
		Value: payload,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType())},
			{Key: HeaderEventID, Value: []byte(event.EventID().String())},
		},
	}, nil
}

// Close flushes and closes the underlying writer
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
