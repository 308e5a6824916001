package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dongwon38/print-agent/internal/dal/rabbitmq"
	"github.com/Dongwon38/print-agent/internal/service/models/event"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EventPublisher publishes operator notifications to a durable queue.
type EventPublisher struct {
	channel channel
	queue   string
}

// MustNewEventPublisher declares rabbitmq.queue and returns a publisher for it.
func MustNewEventPublisher(client *rabbitmq.Client) *EventPublisher {
	name := viper.GetString("rabbitmq.queue")
	if name == "" {
		name = "print-agent.events"
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:       name,
		Durable:    true,
		Exclusive:  false,
		AutoDelete: false,
	})
	if err != nil {
		panic(err)
	}

	return &EventPublisher{
		channel: client.Channel(),
		queue:   queue.Name,
	}
}

// Publish sends e as a JSON message.
func (p *EventPublisher) Publish(_ context.Context, e event.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(e.Type),
			Timestamp:    e.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}

	return nil
}
