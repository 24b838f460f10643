// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that delivers them.
package queue

import "time"

// ReportEmailQueue is the default queue carrying report e-mail jobs.
const ReportEmailQueue = "report.email"

// ReportEmailJob asks the mail consumer to send a rendered report as an
// attachment. Attachment is base64-encoded by encoding/json.
type ReportEmailJob struct {
	ID          string    `json:"id"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Filename    string    `json:"filename"`
	Format      string    `json:"format"`
	ContentType string    `json:"content_type"`
	Attachment  []byte    `json:"attachment"`
	RequestedBy uint64    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}
