package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

// TaggingHeaders names the headers the filter injects into each message
type TaggingHeaders struct {
	Category   string
	Importance string
	Attention  string
	Decider    string
	Reason     string
}

// TaggingFilter is an SMTP content filter that classifies every inbound
// message, injects X-Digest-* headers and optionally relays the tagged
// message to an upstream MTA
type TaggingFilter struct {
	service       *core.ClassifierService
	cache         core.CacheRepository
	logger        *zap.Logger
	listenAddr    string
	server        *smtp.Server
	headers       TaggingHeaders
	relayAddr     string
	relayPort     int
	relayEnabled  bool
	subjectPrefix string
	modifySubject bool
	useRules      bool
	useAI         bool
	triageTTL     time.Duration
	parsedTTL     time.Duration
}

// NewTaggingFilter creates a new SMTP tagging filter. A nil cache
// disables the per-message triage and parsed-text cache stages.
func NewTaggingFilter(
	service *core.ClassifierService,
	cache core.CacheRepository,
	logger *zap.Logger,
	listenAddr string,
	headers TaggingHeaders,
	relayAddr string,
	relayPort int,
	relayEnabled bool,
	subjectPrefix string,
	modifySubject bool,
	useRules bool,
	useAI bool,
	triageTTL time.Duration,
	parsedTTL time.Duration,
) *TaggingFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[URGENT] "
	}

	return &TaggingFilter{
		service:       service,
		cache:         cache,
		logger:        logger,
		listenAddr:    listenAddr,
		headers:       headers,
		relayAddr:     relayAddr,
		relayPort:     relayPort,
		relayEnabled:  relayEnabled,
		subjectPrefix: subjectPrefix,
		modifySubject: modifySubject,
		useRules:      useRules,
		useAI:         useAI,
		triageTTL:     triageTTL,
		parsedTTL:     parsedTTL,
	}
}

// Start starts the SMTP filter service
func (f *TaggingFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Tagging filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *TaggingFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies a single email; used for testing and direct calls
func (f *TaggingFilter) ProcessEmail(ctx context.Context, email *core.ParsedEmail) (*core.ClassifiedEmail, error) {
	return f.classify(ctx, email), nil
}

func triageKey(messageID string) string {
	return "triage:" + messageID
}

func parsedKey(messageID string) string {
	return "parsed:" + messageID
}

// classify runs the cascade behind a short-lived per-message cache so a
// redelivered message (MTA retry, multi-recipient fanout) is tagged once
func (f *TaggingFilter) classify(ctx context.Context, email *core.ParsedEmail) *core.ClassifiedEmail {
	if f.cache == nil || email.MessageID == "" {
		return f.service.Classify(ctx, email, f.useRules, f.useAI)
	}

	key := triageKey(email.MessageID)
	if raw, ok := f.cache.Get(ctx, key); ok {
		var cached core.ClassifiedEmail
		if err := json.Unmarshal(raw, &cached); err == nil {
			f.logger.Debug("Triage cache hit",
				zap.String("message_id", email.MessageID))
			return &cached
		}
	}

	result := f.service.Classify(ctx, email, f.useRules, f.useAI)
	if raw, err := json.Marshal(result); err == nil {
		f.cache.Put(ctx, key, raw, f.triageTTL)
	}
	return result
}

// cachedText returns the previously extracted text body for a message
func (f *TaggingFilter) cachedText(ctx context.Context, messageID string) (string, bool) {
	if f.cache == nil || messageID == "" {
		return "", false
	}
	raw, ok := f.cache.Get(ctx, parsedKey(messageID))
	if !ok {
		return "", false
	}
	return string(raw), true
}

// storeText caches the extracted text body so a redelivery skips MIME
// extraction
func (f *TaggingFilter) storeText(ctx context.Context, messageID, text string) {
	if f.cache == nil || messageID == "" {
		return
	}
	f.cache.Put(ctx, parsedKey(messageID), []byte(text), f.parsedTTL)
}

// relay sends the tagged message to the upstream MTA using go-smtp
func (f *TaggingFilter) relay(sender string, recipients []string, emailData []byte) error {
	upstreamAddr := fmt.Sprintf("%s:%d", f.relayAddr, f.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstreamAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream MTA: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *TaggingFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *TaggingFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for our filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message, injects the digest headers and relays it
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	messageID := messageIDFromHeader(msg.Header)
	textContent, ok := s.filter.cachedText(ctx, messageID)
	if !ok {
		textContent, err = extractTextFromMessage(msg)
		if err != nil {
			s.filter.logger.Error("Failed to extract text content", zap.Error(err))
			return err
		}
		s.filter.storeText(ctx, messageID, textContent)
	}

	email := buildParsedEmail(msg, s.sender, s.recipients, textContent)

	// The cascade is total, so every message gets a tag even when the
	// AI stage is down.
	result := s.filter.classify(ctx, email)

	var tagged bytes.Buffer
	fmt.Fprintf(&tagged, "%s: %s\r\n", s.filter.headers.Category, result.Category)
	fmt.Fprintf(&tagged, "%s: %s\r\n", s.filter.headers.Importance, result.Importance)
	fmt.Fprintf(&tagged, "%s: %s\r\n", s.filter.headers.Attention, result.Attention)
	fmt.Fprintf(&tagged, "%s: %s\r\n", s.filter.headers.Decider, result.Decider)
	fmt.Fprintf(&tagged, "%s: %s\r\n", s.filter.headers.Reason, sanitizeHeaderValue(result.Reason))

	prefixSubject := result.Importance == core.ImportanceCritical &&
		s.filter.modifySubject && s.filter.subjectPrefix != ""
	for key, values := range msg.Header {
		if prefixSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&tagged, "%s: %s\r\n", key, value)
		}
	}
	if prefixSubject {
		subject := email.Subject
		if !strings.HasPrefix(subject, s.filter.subjectPrefix) {
			subject = s.filter.subjectPrefix + subject
		}
		fmt.Fprintf(&tagged, "Subject: %s\r\n", subject)
	}
	fmt.Fprintf(&tagged, "\r\n")

	// Preserve the original body bytes so MIME parts and attachments
	// survive the round trip.
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		tagged.Write(rawData[idx+4:])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		tagged.Write(rawData[idx+2:])
	}

	if s.filter.relayEnabled {
		if err := s.filter.relay(s.sender, s.recipients, tagged.Bytes()); err != nil {
			s.filter.logger.Error("Failed to relay tagged email",
				zap.Error(err),
				zap.String("sender", email.From))
			return err
		}
	}

	s.filter.logger.Info("Tagged email",
		zap.String("from", email.From),
		zap.String("sender_domain", email.SenderDomain()),
		zap.String("category", string(result.Category)),
		zap.String("importance", string(result.Importance)),
		zap.String("decider", string(result.Decider)))

	return nil
}

// Logout handles SMTP logout (not needed for our filter)
func (s *smtpSession) Logout() error {
	return nil
}

// sanitizeHeaderValue keeps injected header values on a single line
func sanitizeHeaderValue(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
