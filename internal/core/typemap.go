package core

import (
	"strings"
)

// TypePattern is a deterministic template for a known sender. Sender matches
// a full address or a bare domain; an empty SubjectPrefix matches any subject.
type TypePattern struct {
	Sender        string
	SubjectPrefix string
	Category      Category
	Importance    Importance
	Attention     Attention
	Reason        string
}

// TypeMapper resolves exact structural matches against known sender
// templates. It is the first cascade stage and entirely deterministic.
type TypeMapper struct {
	byAddress map[string][]TypePattern
	byDomain  map[string][]TypePattern
}

// NewTypeMapper creates a type mapper over the given patterns
func NewTypeMapper(patterns []TypePattern) *TypeMapper {
	m := &TypeMapper{
		byAddress: make(map[string][]TypePattern),
		byDomain:  make(map[string][]TypePattern),
	}
	for _, p := range patterns {
		sender := strings.ToLower(strings.TrimSpace(p.Sender))
		if sender == "" {
			continue
		}
		p.Sender = sender
		if strings.Contains(sender, "@") {
			m.byAddress[sender] = append(m.byAddress[sender], p)
		} else {
			m.byDomain[sender] = append(m.byDomain[sender], p)
		}
	}
	return m
}

// DefaultTypePatterns returns the built-in sender templates
func DefaultTypePatterns() []TypePattern {
	return []TypePattern{
		{Sender: "no-reply@accounts.google.com", SubjectPrefix: "security alert", Category: CategoryNotification, Importance: ImportanceCritical, Attention: AttentionActionRequired, Reason: "known security alert sender"},
		{Sender: "noreply@github.com", Category: CategoryNotification, Importance: ImportanceRoutine, Attention: AttentionNone, Reason: "known notification sender"},
		{Sender: "calendar-notification@google.com", Category: CategoryEvent, Importance: ImportanceTimeSensitive, Attention: AttentionNone, Reason: "known calendar sender"},
		{Sender: "amazon.com", SubjectPrefix: "your order", Category: CategoryReceipt, Importance: ImportanceRoutine, Attention: AttentionNone, Reason: "known order confirmation template"},
		{Sender: "uber.com", SubjectPrefix: "your receipt", Category: CategoryReceipt, Importance: ImportanceLow, Attention: AttentionNone, Reason: "known receipt template"},
	}
}

// Match returns a classification when the email matches a known template.
// The boolean reports whether a template applied.
func (m *TypeMapper) Match(email *ParsedEmail) (*ClassifiedEmail, bool) {
	address := strings.ToLower(strings.TrimSpace(email.From))
	subject := strings.ToLower(email.Subject)

	if patterns, ok := m.byAddress[address]; ok {
		if c, ok := matchPatterns(patterns, subject); ok {
			return c, true
		}
	}
	if patterns, ok := m.byDomain[email.SenderDomain()]; ok {
		if c, ok := matchPatterns(patterns, subject); ok {
			return c, true
		}
	}
	return nil, false
}

func matchPatterns(patterns []TypePattern, subject string) (*ClassifiedEmail, bool) {
	for _, p := range patterns {
		if p.SubjectPrefix != "" && !strings.HasPrefix(subject, p.SubjectPrefix) {
			continue
		}
		return &ClassifiedEmail{
			Category:   p.Category,
			Importance: p.Importance,
			Confidence: 1.0,
			Attention:  p.Attention,
			Decider:    DeciderTypeMapper,
			Reason:     p.Reason,
		}, true
	}
	return nil, false
}
