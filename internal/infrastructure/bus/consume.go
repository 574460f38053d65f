// Package bus starts the consumer for whichever event bus is configured.
package bus

import (
	"context"
	"fmt"
	"log"

	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/infrastructure/kafka"
	"github.com/example/phone-store/internal/infrastructure/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Handler func(ctx context.Context, key, value []byte) error

// Consume blocks until ctx is done. group names the Kafka consumer group or
// the RabbitMQ queue, so each service gets its own copy of every event.
func Consume(ctx context.Context, cfg config.Config, group string, handler Handler) error {
	switch cfg.EventBus {
	case config.EventBusKafka:
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, group)
		defer consumer.Close()
		log.Printf("[Bus] Kafka %v, topic %s, group %s", cfg.KafkaBrokers, cfg.KafkaTopic, group)
		return consumer.Consume(ctx, kafka.MessageHandler(handler))

	case config.EventBusRabbitMQ:
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer conn.Close()
		consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQExchange, group)
		if err != nil {
			return err
		}
		defer consumer.Close()
		log.Printf("[Bus] RabbitMQ exchange %s, queue %s", cfg.RabbitMQExchange, group)
		return consumer.Consume(ctx, rabbitmq.MessageHandler(handler))

	default:
		return fmt.Errorf("EVENT_BUS %q has no consumer", cfg.EventBus)
	}
}
