package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mirrors catalog events to a Kafka topic.
type KafkaPublisher struct {
	w      messageWriter
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           kafkaWriteTimeout,
	}
	return &KafkaPublisher{w: w, logger: logger.With("component", "kafka_publisher", "topic", topic)}
}

func eventMessage(ev Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", ev.Entity, ev.ID)),
		Value: data,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "action", Value: []byte(ev.Action)},
		},
	}, nil
}

// Publish writes the event in the background so request latency does not depend on the broker.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) {
	msg, err := eventMessage(ev)
	if err != nil {
		p.logger.Error("kafka_publish_failed", "entity", ev.Entity, "id", ev.ID, "error", err)
		return
	}

	go func() {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), kafkaWriteTimeout)
		defer cancel()
		if err := p.w.WriteMessages(wctx, msg); err != nil {
			p.logger.Error("kafka_publish_failed", "entity", ev.Entity, "id", ev.ID, "error", err)
		}
	}()
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
