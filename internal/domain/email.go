package domain

import (
	"strings"
	"time"
)

// MaxEmailMessageLen bounds the stored body of a cold email.
const MaxEmailMessageLen = 5000

// ParsedJobEmail is the structured extraction from one sent email. The
// recipient is the job contact (the mailbox scanned is the user's own Sent
// folder), the sender is the account owner.
type ParsedJobEmail struct {
	RecipientEmail string    `json:"recipientEmail"`
	RecipientName  string    `json:"recipientName,omitempty"`
	SenderEmail    string    `json:"senderEmail"`
	Company        string    `json:"company,omitempty"`
	Position       string    `json:"position,omitempty"`
	Location       string    `json:"location,omitempty"`
	JobURL         string    `json:"jobUrl,omitempty"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	SentAt         time.Time `json:"sentAt"`
}

// Validate reports whether the email may be persisted. The recipient is the
// only hard requirement; everything else degrades to absent.
func (e ParsedJobEmail) Validate() *ValidationError {
	if strings.TrimSpace(e.RecipientEmail) == "" {
		return &ValidationError{Field: "recipientEmail", Reason: "missing"}
	}
	return nil
}

// Truncated returns a copy with the message body clipped to the storage cap.
func (e ParsedJobEmail) Truncated() ParsedJobEmail {
	if len(e.Message) > MaxEmailMessageLen {
		e.Message = e.Message[:MaxEmailMessageLen]
	}
	return e
}
