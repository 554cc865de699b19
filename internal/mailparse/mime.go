// Package mailparse reads messages out of the user's Sent folder, decides
// which are job outreach, and extracts structured records from them.
package mailparse

import (
	"bytes"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gomail "github.com/emersion/go-message/mail"
)

// Address is one mailbox from a structured header.
type Address struct {
	Name    string
	Address string
}

// Message is the decoded form of one raw RFC822 message: headers plus a
// plain-text rendering of the body.
type Message struct {
	Subject string
	From    []Address
	To      []Address
	Cc      []Address
	Date    time.Time
	Body    string
}

// Parse decodes a raw message. MIME multiparts are walked with go-message;
// a bare net/mail pass is the fallback for messages it refuses.
func Parse(raw []byte) (*Message, error) {
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return parseFallback(raw)
	}

	msg := &Message{}
	msg.Subject, _ = mr.Header.Subject()
	msg.Date, _ = mr.Header.Date()
	msg.From = addressList(mr.Header, "From")
	msg.To = addressList(mr.Header, "To")
	msg.Cc = addressList(mr.Header, "Cc")

	var plain, html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}
		switch ct {
		case "text/plain":
			if plain == "" {
				plain = string(b)
			}
		case "text/html":
			if html == "" {
				html = string(b)
			}
		}
	}

	msg.Body = plain
	if msg.Body == "" && html != "" {
		msg.Body = htmlToText(html)
	}
	return msg, nil
}

func addressList(h gomail.Header, key string) []Address {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}
	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, Address{Name: a.Name, Address: a.Address})
	}
	return out
}

// parseFallback handles messages go-message cannot open at all.
func parseFallback(raw []byte) (*Message, error) {
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	msg := &Message{Subject: m.Header.Get("Subject")}
	if ds := m.Header.Get("Date"); ds != "" {
		if t, err := mail.ParseDate(ds); err == nil {
			msg.Date = t
		}
	}
	msg.From = fallbackAddresses(m.Header, "From")
	msg.To = fallbackAddresses(m.Header, "To")
	msg.Cc = fallbackAddresses(m.Header, "Cc")

	body, err := io.ReadAll(m.Body)
	if err == nil {
		text := string(body)
		if strings.Contains(strings.ToLower(m.Header.Get("Content-Type")), "text/html") {
			text = htmlToText(text)
		}
		msg.Body = text
	}
	return msg, nil
}

func fallbackAddresses(h mail.Header, key string) []Address {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}
	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, Address{Name: a.Name, Address: a.Address})
	}
	return out
}

// htmlToText flattens an HTML body to readable text.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script,style").Remove()
	return strings.TrimSpace(doc.Text())
}
