package mailparse

import (
	"errors"
	"regexp"
	"strings"

	"jobtrail-engine/internal/domain"
	"jobtrail-engine/internal/extract"
)

// ErrNotParsable means no recipient address could be resolved; the message
// cannot become a record at all. Distinct from ErrNotJobRelated.
var ErrNotParsable = errors.New("email has no resolvable recipient")

// ErrNotJobRelated means the relevance filter rejected the message.
var ErrNotJobRelated = errors.New("email is not job related")

// Cheap high-recall relevance filter. False positives are fine: extraction
// discards records without a usable position further down.
var relevanceKeywords = []string{
	"job", "position", "opportunity", "career", "hiring",
	"recruiter", "recruitment", "application", "interview", "role",
	"vacancy", "opening", "candidate", "resume", "cv",
}

// relevanceScanWindow is how much body text joins the subject for the test.
const relevanceScanWindow = 500

var reEmailAddr = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Relevant reports whether subject+body look like job traffic.
func Relevant(subject, body string) bool {
	if len(body) > relevanceScanWindow {
		body = body[:relevanceScanWindow]
	}
	blob := strings.ToLower(subject + " " + body)
	for _, kw := range relevanceKeywords {
		if strings.Contains(blob, kw) {
			return true
		}
	}
	return false
}

// Classify turns one decoded Sent-folder message into a ParsedJobEmail. The
// recipient is the job contact (To, then Cc, then a body scan); the sender
// is the account owner.
func Classify(msg *Message) (domain.ParsedJobEmail, error) {
	recipient, name := resolveRecipient(msg)
	if recipient == "" {
		return domain.ParsedJobEmail{}, ErrNotParsable
	}
	if !Relevant(msg.Subject, msg.Body) {
		return domain.ParsedJobEmail{}, ErrNotJobRelated
	}

	sender := ""
	if len(msg.From) > 0 {
		sender = msg.From[0].Address
	}

	em := domain.ParsedJobEmail{
		RecipientEmail: strings.ToLower(recipient),
		RecipientName:  name,
		SenderEmail:    strings.ToLower(sender),
		Position:       extract.Position(msg.Subject, msg.Body),
		Company:        extract.Company(msg.Body, recipient),
		Location:       extract.Location(msg.Body),
		JobURL:         extract.JobURL(msg.Body),
		Subject:        msg.Subject,
		Message:        msg.Body,
		SentAt:         msg.Date,
	}
	return em.Truncated(), nil
}

// resolveRecipient prefers the structured To header, then Cc, then a raw
// address scan over the body.
func resolveRecipient(msg *Message) (addr, name string) {
	for _, list := range [][]Address{msg.To, msg.Cc} {
		for _, a := range list {
			if strings.TrimSpace(a.Address) != "" {
				return strings.TrimSpace(a.Address), strings.TrimSpace(a.Name)
			}
		}
	}
	if m := reEmailAddr.FindString(msg.Body); m != "" {
		return m, ""
	}
	return "", ""
}
