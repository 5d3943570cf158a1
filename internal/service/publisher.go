// Package service holds outbound integrations used by the HTTP handlers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/observability"
	"github.com/iliyamo/activity-tracker/internal/queue"
)

// AMQPPublisher publishes activity events to RabbitMQ.  Each publish opens
// its own connection so a broker outage never leaves a broken handle behind.
// Errors are logged and returned; callers are free to ignore them.
type AMQPPublisher struct {
	url string
	log logrus.FieldLogger
}

func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// Publish sends ev to queue.ActivityQueueName as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) (err error) {
	defer func() { observability.RecordEventPublished(err) }()
	l := p.log.WithFields(logrus.Fields{"event_id": ev.EventID, "type": ev.Type})

	conn, err := amqp.Dial(p.url)
	if err != nil {
		l.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		l.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err = ch.QueueDeclare(
		queue.ActivityQueueName, // name
		true,                    // durable
		false,                   // autoDelete
		false,                   // exclusive
		false,                   // noWait
		nil,                     // args
	); err != nil {
		l.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", queue.ActivityQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		l.WithError(err).Warn("rabbitmq: publish failed")
	}
	return err
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }
