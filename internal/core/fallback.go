package core

import (
	"strings"
)

// keywordRule is one ordered heuristic of the fallback classifier
type keywordRule struct {
	keywords   []string
	category   Category
	importance Importance
	attention  Attention
	confidence float64
	reason     string
}

// fallbackRules are checked in order against subject then body; the first
// hit wins. Security signals outrank transactional ones so a fraud alert
// never classifies as a receipt.
var fallbackRules = []keywordRule{
	{
		keywords:   []string{"fraud", "suspicious activity", "unauthorized", "security alert", "account locked"},
		category:   CategoryNotification,
		importance: ImportanceCritical,
		attention:  AttentionActionRequired,
		confidence: 0.7,
		reason:     "security keyword match",
	},
	{
		keywords:   []string{"verification code", "one-time code", "otp", "2fa code"},
		category:   CategoryNotification,
		importance: ImportanceTimeSensitive,
		attention:  AttentionActionRequired,
		confidence: 0.65,
		reason:     "one-time code keyword match",
	},
	{
		keywords:   []string{"receipt", "invoice", "payment", "order confirmation", "billed", "bill due"},
		category:   CategoryReceipt,
		importance: ImportanceRoutine,
		attention:  AttentionNone,
		confidence: 0.6,
		reason:     "receipt keyword match",
	},
	{
		keywords:   []string{"flight", "boarding", "itinerary", "check-in"},
		category:   CategoryEvent,
		importance: ImportanceTimeSensitive,
		attention:  AttentionActionRequired,
		confidence: 0.6,
		reason:     "travel keyword match",
	},
	{
		keywords:   []string{"meeting", "invite", "calendar", "rsvp", "webinar"},
		category:   CategoryEvent,
		importance: ImportanceTimeSensitive,
		attention:  AttentionNone,
		confidence: 0.55,
		reason:     "event keyword match",
	},
	{
		keywords:   []string{"unsubscribe", "% off", "sale", "deal", "limited time", "discount"},
		category:   CategoryPromotion,
		importance: ImportanceLow,
		attention:  AttentionNone,
		confidence: 0.55,
		reason:     "promotion keyword match",
	},
	{
		keywords:   []string{"reminder", "due", "expires", "deadline", "action required"},
		category:   CategoryNotification,
		importance: ImportanceTimeSensitive,
		attention:  AttentionActionRequired,
		confidence: 0.5,
		reason:     "deadline keyword match",
	},
}

// FallbackClassifier applies ordered keyword heuristics. It is the last
// cascade stage and always produces a classification.
type FallbackClassifier struct{}

// NewFallbackClassifier creates a fallback classifier
func NewFallbackClassifier() *FallbackClassifier {
	return &FallbackClassifier{}
}

// Classify always returns a fully populated classification
func (f *FallbackClassifier) Classify(email *ParsedEmail) *ClassifiedEmail {
	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)

	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(subject, kw) || strings.Contains(body, kw) {
				return &ClassifiedEmail{
					Category:   rule.category,
					Importance: rule.importance,
					Confidence: rule.confidence,
					Attention:  rule.attention,
					Decider:    DeciderFallback,
					Reason:     rule.reason,
				}
			}
		}
	}

	return &ClassifiedEmail{
		Category:   CategoryMessage,
		Importance: ImportanceRoutine,
		Confidence: 0.3,
		Attention:  AttentionNone,
		Decider:    DeciderFallback,
		Reason:     "no heuristic matched",
	}
}
