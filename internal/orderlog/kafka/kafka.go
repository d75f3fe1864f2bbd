// Package kafka publishes placed orders as JSON events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/MrWong99/orderbot/internal/orderlog"
)

// Publisher is an [orderlog.Sink] that sends one message per placed order,
// keyed by order ID. It is safe for concurrent use.
type Publisher struct {
	producer sarama.SyncProducer
	client   sarama.Client
	topic    string
}

var _ orderlog.Sink = (*Publisher)(nil)

// NewConfig returns the sarama configuration used by [New]. The producer
// waits for all in-sync replicas.
func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "orderbot"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 10 * time.Second
	cfg.Net.WriteTimeout = 10 * time.Second
	return cfg
}

// New connects to brokers and returns a Publisher for topic.
func New(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka orderlog: no brokers")
	}
	if topic == "" {
		return nil, errors.New("kafka orderlog: topic must not be empty")
	}
	client, err := sarama.NewClient(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka orderlog: connect: %w", err)
	}
	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kafka orderlog: create producer: %w", err)
	}
	slog.Info("kafka order publisher ready", "brokers", brokers, "topic", topic)
	return &Publisher{producer: producer, client: client, topic: topic}, nil
}

// NewWithProducer returns a Publisher over an existing producer. Ping always
// succeeds because there is no client to ask.
func NewWithProducer(p sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

// Record implements [orderlog.Sink].
func (p *Publisher) Record(ctx context.Context, placed orderlog.Placed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(placed)
	if err != nil {
		return fmt.Errorf("kafka orderlog: marshal: %w", err)
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(placed.OrderID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("application/json")},
			{Key: []byte("event"), Value: []byte("order.placed")},
		},
		Timestamp: placed.PlacedAt,
	})
	if err != nil {
		return fmt.Errorf("kafka orderlog: send %s: %w", placed.OrderID, err)
	}
	slog.Debug("order event published", "order_id", placed.OrderID, "partition", partition, "offset", offset)
	return nil
}

// Ping implements [orderlog.Sink] by refreshing the topic metadata.
func (p *Publisher) Ping(context.Context) error {
	if p.client == nil {
		return nil
	}
	if p.client.Closed() {
		return errors.New("kafka orderlog: client closed")
	}
	if err := p.client.RefreshMetadata(p.topic); err != nil {
		return fmt.Errorf("kafka orderlog: ping: %w", err)
	}
	return nil
}

// Close implements [orderlog.Sink].
func (p *Publisher) Close() error {
	err := p.producer.Close()
	if p.client != nil && !p.client.Closed() {
		err = errors.Join(err, p.client.Close())
	}
	return err
}
