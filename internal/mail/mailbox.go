// Package mail fetches candidate documents from an IMAP folder. Only
// attachments with allowed extensions survive; everything else in the
// message is ignored.
package mail

import (
	"context"
	"time"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one fetched mail with its document attachments. ID is the
// RFC 5322 Message-Id and the pipeline's dedup key.
type Message struct {
	ID          string
	Subject     string
	From        string
	ReceivedAt  time.Time
	Attachments []Attachment
}

// Criteria narrows the search. Empty fields match everything; Limit
// bounds how many of the newest matches are fetched.
type Criteria struct {
	Subject string
	From    string
	Limit   int
}

type Status struct {
	Messages int
	Unseen   int
}

// Mailbox is the transport interface the batch intake depends on.
type Mailbox interface {
	Fetch(ctx context.Context, criteria Criteria) ([]Message, error)
	Status(ctx context.Context) (Status, error)
	Close() error
}
