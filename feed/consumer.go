// Package feed reads transaction events from a RabbitMQ queue.
package feed

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/etnz/payments"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrClosed is yielded when the broker closes the delivery channel while the
// consumer is still running.
var ErrClosed = errors.New("delivery channel closed")

// Config describes the queue to consume.
type Config struct {
	URL      string // URL is the amqp:// connection string.
	Queue    string // Queue is declared durable if it does not exist.
	Prefetch int    // Prefetch bounds the unacknowledged deliveries, 1 when zero.
}

// Consumer consumes JSON events, one per message, from a single queue.
type Consumer struct {
	cfg  Config
	log  logrus.FieldLogger
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the queue.
func Dial(cfg Config, log logrus.FieldLogger) (*Consumer, error) {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	log.WithField("queue", cfg.Queue).Info("connected to RabbitMQ")
	return &Consumer{cfg: cfg, log: log, conn: conn, ch: ch}, nil
}

// Events starts consuming and returns the stream of events in delivery order.
//
// Events are processed with a single consumer so that the queue order is the
// apply order.
func (c *Consumer) Events(ctx context.Context) (iter.Seq2[payments.Event, error], error) {
	msgs, err := c.ch.ConsumeWithContext(ctx,
		c.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return Events(ctx, msgs, c.log), nil
}

// Close closes the channel and the connection.
func (c *Consumer) Close() error {
	err := c.ch.Close()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	c.log.Info("consumer closed")
	return err
}

// Events turns deliveries into an event stream.
//
// A delivery is acknowledged once the caller's loop body returns for its
// event, so an event is never acknowledged before it was applied. Messages
// that are not valid events are rejected without requeue and yielded as
// *payments.DecodeError. The stream ends when ctx is done, or with ErrClosed
// when deliveries is closed first.
func Events(ctx context.Context, deliveries <-chan amqp.Delivery, log logrus.FieldLogger) iter.Seq2[payments.Event, error] {
	return func(yield func(payments.Event, error) bool) {
		for {
			var d amqp.Delivery
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-deliveries:
				if !ok {
					if ctx.Err() == nil {
						yield(nil, ErrClosed)
					}
					return
				}
				d = msg
			}

			entry := log.WithField("delivery_tag", d.DeliveryTag)
			e, err := payments.DecodeEvent(d.Body)
			if err != nil {
				// Reject and don't requeue malformed messages
				if nerr := d.Nack(false, false); nerr != nil {
					entry.WithError(nerr).Error("failed to nack message")
				}
				if !yield(nil, err) {
					return
				}
				continue
			}

			more := yield(e, nil)
			if aerr := d.Ack(false); aerr != nil {
				entry.WithError(aerr).Error("failed to ack message")
			}
			if !more {
				return
			}
		}
	}
}
