// Package events publishes image lifecycle notifications to a broker.
// The dev server uses it when a broker is configured; everything here is
// best-effort and never blocks the request path for long.
package events

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

var publishStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  1.5,
}

// Publisher sends one event per image lifecycle change.
type Publisher struct {
	producer *wbfkafka.Producer
}

// NewPublisher connects a producer for the topic, waiting for the
// broker and creating the topic first when it does not exist yet.
func NewPublisher(ctx context.Context, broker, topic string) (*Publisher, error) {
	if err := waitReady(ctx, broker); err != nil {
		return nil, err
	}
	if err := ensureTopic(ctx, broker, topic); err != nil {
		return nil, err
	}
	return &Publisher{producer: wbfkafka.NewProducer([]string{broker}, topic)}, nil
}

// Publish sends the event keyed by the image uuid.
func (p *Publisher) Publish(ctx context.Context, event, key string) error {
	if err := p.producer.SendWithRetry(ctx, publishStrategy, []byte(key), []byte(event)); err != nil {
		zlog.Logger.Error().Err(err).Str("event", event).Str("key", key).Msg("failed to publish event")
		return err
	}
	return nil
}

// Close shuts the producer down.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

// Noop satisfies the notifier contract when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string) error { return nil }

// waitReady blocks until the broker accepts connections or ctx ends.
func waitReady(ctx context.Context, broker string) error {
	for {
		conn, err := kafkago.Dial("tcp", broker)
		if err == nil {
			if closeErr := conn.Close(); closeErr != nil {
				zlog.Logger.Warn().Err(closeErr).Msg("failed to close kafka probe connection")
			}
			return nil
		}

		zlog.Logger.Info().Str("broker", broker).Msg("kafka not ready, retrying in 5s")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func ensureTopic(ctx context.Context, broker, topic string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(broker),
		Timeout: 10 * time.Second,
	}

	resp, err := client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}},
	})
	if err != nil {
		return err
	}

	for name, topicErr := range resp.Errors {
		if topicErr != nil && !errors.Is(topicErr, kafkago.TopicAlreadyExists) {
			return errors.New("creating topic " + name + ": " + topicErr.Error())
		}
	}
	return nil
}
