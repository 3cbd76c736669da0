package events

import (
	"context"
	"time"

	"github.com/pkg/errors"
	skafka "github.com/segmentio/kafka-go"

	"github.com/batchcorp/mirror/options"
)

const (
	kafkaDialTimeout = 10 * time.Second

	// One event at a time; lifecycle events are rare
	kafkaBatchSize = 1
)

type Kafka struct {
	writer *skafka.Writer
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker address is required")
	}

	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	dialer := &skafka.Dialer{
		Timeout: kafkaDialTimeout,
	}

	return &Kafka{
		writer: skafka.NewWriter(skafka.WriterConfig{
			Brokers:   brokers,
			Topic:     topic,
			Dialer:    dialer,
			BatchSize: kafkaBatchSize,
			Balancer:  &skafka.Hash{},
		}),
	}, nil
}

func (k *Kafka) Name() string {
	return options.EventsBackendKafka
}

// Publish keys messages by path so a stream's events land on one partition
func (k *Kafka) Publish(ctx context.Context, key string, data []byte) error {
	if err := k.writer.WriteMessages(ctx, skafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return errors.Wrap(err, "unable to publish message(s)")
	}

	return nil
}

func (k *Kafka) Close(_ context.Context) error {
	return k.writer.Close()
}
