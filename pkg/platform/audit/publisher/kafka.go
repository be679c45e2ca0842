package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "adresolver/pkg/platform/audit"
)

// Kafka publishes audit events as JSON records. Production is asynchronous;
// delivery failures are reported through the configured client hooks, not to
// the resolution path.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka builds a publisher on its own client. Callers own Close.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Emit produces the event keyed by action so per-action ordering holds
// within a partition.
func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.Action),
		Value: payload,
	}
	k.client.Produce(ctx, record, nil)
	return nil
}

// Flush drains buffered records; call before Close on shutdown.
func (k *Kafka) Flush(ctx context.Context) error {
	return k.client.Flush(ctx)
}

func (k *Kafka) Close() {
	k.client.Close()
}
