// Package mailer delivers report e-mails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
	"github.com/iliyamo/checkpoint-revenue/internal/queue"
)

// SMTPSender sends report jobs through a gomail dialer. A new SMTP session
// is opened per message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers job. gomail has no context support, so ctx is only checked
// before dialing.
func (s *SMTPSender) Send(ctx context.Context, job queue.ReportEmailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(buildMessage(s.from, job)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", job.To, err)
	}
	return nil
}

func buildMessage(from string, job queue.ReportEmailJob) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", job.To)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.Body)
	if len(job.Attachment) > 0 {
		body := job.Attachment
		m.Attach(job.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {job.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(body)
				return err
			}),
		)
	}
	return m
}
