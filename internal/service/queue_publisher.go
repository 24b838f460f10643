package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/queue"
)

// AMQPPublisher publishes report e-mail jobs to RabbitMQ. Each publish
// opens its own connection; jobs are rare and the broker may restart
// between them.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

func NewAMQPPublisher(url, queueName string, log zerolog.Logger) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.ReportEmailQueue
	}
	return &AMQPPublisher{url: url, queue: queueName, log: log}
}

// PublishReportEmail declares the durable queue and publishes job as a
// persistent JSON message. Errors are logged and returned.
func (p *AMQPPublisher) PublishReportEmail(ctx context.Context, job queue.ReportEmailJob) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Error().Err(err).Str("queue", p.queue).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
