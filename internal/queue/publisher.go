package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/halalverify/halal-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	PublishExpiring(ctx context.Context, events []CertificateExpiringEvent) error
}

// NewPublisher returns the RabbitMQ publisher, or the log-only one when no
// broker URL is configured.
func NewPublisher(url, queueName string) Publisher {
	if url == "" {
		return LogPublisher{}
	}
	if queueName == "" {
		queueName = CertificateExpiringQueue
	}
	return &AMQPPublisher{url: url, queue: queueName}
}

// AMQPPublisher opens one connection per batch. The job runs once a day, so
// there is no long-lived connection to keep healthy.
type AMQPPublisher struct {
	url   string
	queue string
}

func (p *AMQPPublisher) PublishExpiring(ctx context.Context, events []CertificateExpiringEvent) error {
	if len(events) == 0 {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.Error("RabbitMQ dial failed", err, nil)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("RabbitMQ channel open failed", err, nil)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		logger.Error("RabbitMQ queue declare failed", err, map[string]interface{}{
			"queue": p.queue,
		})
		return err
	}

	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal expiring event: %w", err)
		}

		if err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    event.CertificateID + ":" + event.ExpiryDate,
			Body:         body,
		}); err != nil {
			logger.Error("RabbitMQ publish failed", err, map[string]interface{}{
				"certificate_number": event.CertificateNumber,
			})
			return err
		}
	}

	logger.Info("Published expiring certificate events", map[string]interface{}{
		"queue": p.queue,
		"count": len(events),
	})
	return nil
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct{}

func (LogPublisher) PublishExpiring(ctx context.Context, events []CertificateExpiringEvent) error {
	for _, event := range events {
		logger.Info("Certificate expiring", map[string]interface{}{
			"certificate_number": event.CertificateNumber,
			"business_id":        event.BusinessID,
			"expiry_date":        event.ExpiryDate,
			"days_remaining":     event.DaysRemaining,
		})
	}
	return nil
}
