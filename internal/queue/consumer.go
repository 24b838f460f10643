package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/metrics"
)

// Sender delivers a report e-mail job.
type Sender interface {
	Send(ctx context.Context, job ReportEmailJob) error
}

const maxBackoff = 30 * time.Second

// StartReportEmailConsumer connects to RabbitMQ, declares queueName
// (durable) and hands every job to sender. Broker failures trigger a
// reconnect with exponential backoff; the function returns only when ctx is
// cancelled. A job that cannot be decoded or sent is logged and rejected
// without requeue so one bad message cannot stall the queue.
func StartReportEmailConsumer(ctx context.Context, url, queueName string, sender Sender, log zerolog.Logger) error {
	if queueName == "" {
		queueName = ReportEmailQueue
	}
	log = log.With().Str("component", "report-email-consumer").Str("queue", queueName).Logger()

	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		log.Info().Msg("connected")

		err = consumeLoop(ctx, conn, queueName, sender, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, sender Sender, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Attachments can be large; keep only a few in flight.
	if err := ch.Qos(4, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, sender, log); err != nil {
				log.Error().Err(err).Str("message_id", d.MessageId).Msg("report e-mail failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, sender Sender, log zerolog.Logger) error {
	var job ReportEmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		metrics.ReportEmailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("unmarshal: %w", err)
	}
	if job.To == "" {
		metrics.ReportEmailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("job %s has no recipient", job.ID)
	}
	if err := sender.Send(ctx, job); err != nil {
		metrics.ReportEmailsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ReportEmailsTotal.WithLabelValues("sent").Inc()
	log.Info().
		Str("job_id", job.ID).
		Str("to", job.To).
		Str("file", job.Filename).
		Int("bytes", len(job.Attachment)).
		Msg("report e-mail sent")
	return nil
}
