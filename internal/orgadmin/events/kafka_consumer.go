package events

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const handlerRetries = 3

func defaultRetryPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), handlerRetries)
}

// Consumer reads events from a topic and hands each one to a handler. A
// failing handler is retried with exponential backoff; once the retries are
// exhausted the event is logged as dropped and its offset committed, so the
// consumer never stalls on one message. Unparseable messages are committed
// straight away.
type Consumer struct {
	reader      KafkaReader
	logger      *zap.Logger
	handler     func(context.Context, Event) error
	retryPolicy func() backoff.BackOff
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
			Dialer:  kafka.DefaultDialer,
		}),
		logger:      logger.Named("kafka_consumer"),
		retryPolicy: defaultRetryPolicy,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to parse event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg, "")
			continue
		}

		if c.handler != nil {
			if err := c.handle(ctx, event); err != nil {
				// Uncommitted, the message is delivered again after a restart.
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("Dropping event after failed retries",
					zap.Error(err),
					zap.String("event_type", string(event.Type)),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
		}

		c.commit(ctx, msg, event.Type)
	}
}

func (c *Consumer) handle(ctx context.Context, event Event) error {
	policy := c.retryPolicy
	if policy == nil {
		policy = defaultRetryPolicy
	}
	return backoff.Retry(func() error {
		err := c.handler(ctx, event)
		if err != nil {
			c.logger.Warn("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
			)
		}
		return err
	}, backoff.WithContext(policy(), ctx))
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, eventType EventType) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (c *Consumer) RegisterHandler(fn func(context.Context, Event) error) {
	c.handler = fn
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
