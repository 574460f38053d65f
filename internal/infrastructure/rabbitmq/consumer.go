package rabbitmq

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads a durable queue bound to the events exchange.
type Consumer struct {
	ch    *amqp.Channel
	queue string
}

func NewConsumer(conn *amqp.Connection, exchange, queue string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}
	if err := ch.Qos(32, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

// Consume blocks until ctx is done or the channel closes.
// Messages whose handler fails are rejected without requeue.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msgs, err := c.ch.Consume(c.queue, c.queue, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consume %s: delivery channel closed", c.queue)
			}
			if err := handler(ctx, []byte(aggregateKey(msg)), msg.Body); err != nil {
				log.Printf("[RabbitMQ:%s] Error handling message: %v", c.queue, err)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

func aggregateKey(msg amqp.Delivery) string {
	if v, ok := msg.Headers["aggregate_id"].(string); ok {
		return v
	}
	return msg.RoutingKey
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
