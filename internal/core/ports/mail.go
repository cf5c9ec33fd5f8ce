package ports

import "context"

// Mail is a single outbound message.
type Mail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// MailQueue accepts messages for asynchronous delivery. Enqueue never blocks
// the caller for longer than a channel send.
type MailQueue interface {
	Enqueue(mail Mail)
}
