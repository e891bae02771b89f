package extract

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

// Extractor turns a classified email into zero or more digest entities
// using lightweight text heuristics. No date-parsing library from the
// surrounding ecosystem covers the relative phrases handled here, so the
// parsing stays on regexp plus the time package.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

var (
	isoDatePattern  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	flightPattern   = regexp.MustCompile(`(?i)\b(flight|boarding|departure|itinerary)\b`)
	deadlinePattern = regexp.MustCompile(`(?i)\b(due|deadline|expires?|by the end of)\b`)
	locationPattern = regexp.MustCompile(`(?im)^(?:location|where):\s*(.+)$`)
)

// Extract derives digest entities from an email and its classification.
// Plain correspondence yields no entities; everything else yields one.
func (x *Extractor) Extract(email *core.ParsedEmail, classified *core.ClassifiedEmail) []*core.DigestEntity {
	if classified.Category == core.CategoryMessage {
		return nil
	}

	entity := &core.DigestEntity{
		Kind:         x.kindFor(email, classified),
		Title:        email.Subject,
		SenderDomain: email.SenderDomain(),
		Subject:      email.Subject,
		Source:       classified,
	}

	text := email.Subject + "\n" + email.Body
	x.resolveWindow(entity, text, email.ReceivedAt)

	if m := locationPattern.FindStringSubmatch(email.Body); m != nil {
		entity.Location = strings.TrimSpace(m[1])
	}

	if x.logger != nil {
		x.logger.Debug("Extracted entity",
			zap.String("kind", string(entity.Kind)),
			zap.String("domain", entity.SenderDomain),
			zap.Bool("has_window", entity.HasTimeframe()))
	}

	return []*core.DigestEntity{entity}
}

// ExtractAll runs extraction over paired emails and classifications
func (x *Extractor) ExtractAll(emails []*core.ParsedEmail, classified []*core.ClassifiedEmail) []*core.DigestEntity {
	var entities []*core.DigestEntity
	for i, email := range emails {
		if i >= len(classified) {
			break
		}
		entities = append(entities, x.Extract(email, classified[i])...)
	}
	return entities
}

func (x *Extractor) kindFor(email *core.ParsedEmail, classified *core.ClassifiedEmail) core.EntityKind {
	text := email.Subject + " " + email.Body
	switch classified.Category {
	case core.CategoryEvent:
		if flightPattern.MatchString(text) {
			return core.KindFlight
		}
		return core.KindEvent
	case core.CategoryPromotion:
		return core.KindPromo
	case core.CategoryReceipt:
		return core.KindNotification
	default:
		if deadlinePattern.MatchString(text) {
			return core.KindDeadline
		}
		if strings.Contains(strings.ToLower(text), "reminder") {
			return core.KindReminder
		}
		return core.KindNotification
	}
}

// resolveWindow looks for a temporal anchor in the text. "tomorrow at this
// time" style phrases resolve relative to the received timestamp; explicit
// ISO dates resolve to the start of that day in the received zone.
func (x *Extractor) resolveWindow(entity *core.DigestEntity, text string, receivedAt time.Time) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "tomorrow"):
		start := receivedAt.Add(24 * time.Hour)
		entity.WindowStart = &start
	case strings.Contains(lower, "today") || strings.Contains(lower, "tonight"):
		entity.SameDay = true
	default:
		if m := isoDatePattern.FindStringSubmatch(text); m != nil {
			if start, err := time.ParseInLocation("2006-01-02", m[0], receivedAt.Location()); err == nil {
				entity.WindowStart = &start
			}
		}
	}
}
