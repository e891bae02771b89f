package filter

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

// EmailFilter defines the interface for email filtering front-ends
type EmailFilter interface {
	// ProcessEmail classifies a single email
	ProcessEmail(ctx context.Context, email *core.ParsedEmail) (*core.ClassifiedEmail, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}

// messageIDFromHeader returns the Message-ID header value with angle
// brackets stripped, accepting either header-name casing
func messageIDFromHeader(h mail.Header) string {
	id := strings.Trim(h.Get("Message-Id"), "<> ")
	if id == "" {
		id = strings.Trim(h.Get("Message-ID"), "<> ")
	}
	return id
}

// buildParsedEmail assembles a ParsedEmail from a parsed message, the
// envelope sender/recipients and the extracted text content
func buildParsedEmail(msg *mail.Message, sender string, recipients []string, textContent string) *core.ParsedEmail {
	email := &core.ParsedEmail{
		From:       sender,
		To:         recipients,
		Body:       textContent,
		Headers:    make(map[string][]string),
		ReceivedAt: time.Now(),
	}

	for key, values := range msg.Header {
		email.Headers[key] = values
	}

	if subject := msg.Header.Get("Subject"); subject != "" {
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			email.Subject = decoded
		} else {
			email.Subject = subject
		}
	}

	email.MessageID = messageIDFromHeader(msg.Header)
	email.ThreadID = strings.Trim(msg.Header.Get("In-Reply-To"), "<> ")

	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}

	return email
}
