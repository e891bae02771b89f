package core

import (
	"context"

	"go.uber.org/zap"
)

// ClassifierService runs the classification cascade: type mapper, learned
// rules, AI, keyword fallback. It never returns an error and never panics on
// well-formed input; any stage failure degrades to the next stage and the
// Decider field records which stage actually produced the result.
type ClassifierService struct {
	typeMapper *TypeMapper
	rules      *RulesEngine
	ai         *AIClassifier
	fallback   *FallbackClassifier
	contacts   ContactChecker
	logger     *zap.Logger
}

// NewClassifierService creates the cascade. The AI classifier may be nil,
// in which case the AI stage is skipped regardless of useAI.
func NewClassifierService(
	typeMapper *TypeMapper,
	rules *RulesEngine,
	ai *AIClassifier,
	fallback *FallbackClassifier,
	contacts ContactChecker,
	logger *zap.Logger,
) *ClassifierService {
	return &ClassifierService{
		typeMapper: typeMapper,
		rules:      rules,
		ai:         ai,
		fallback:   fallback,
		contacts:   contacts,
		logger:     logger,
	}
}

// Classify produces a fully populated classification for the email
func (s *ClassifierService) Classify(ctx context.Context, email *ParsedEmail, useRules, useAI bool) *ClassifiedEmail {
	if c, ok := s.typeMapper.Match(email); ok {
		return s.finish(email, c)
	}

	if useRules {
		if c, ok := s.rules.Match(email); ok {
			return s.finish(email, c)
		}
	}

	if useAI && s.ai != nil {
		c, err := s.ai.Classify(ctx, email)
		if err == nil {
			return s.finish(email, c)
		}
		s.logger.Warn("AI stage degraded to fallback",
			zap.String("message_id", email.MessageID),
			zap.Error(err))
	}

	return s.finish(email, s.fallback.Classify(email))
}

// ClassifyBatch classifies each email independently, returning one result
// per input in the same order
func (s *ClassifierService) ClassifyBatch(ctx context.Context, emails []*ParsedEmail, useRules, useAI bool) []*ClassifiedEmail {
	results := make([]*ClassifiedEmail, len(emails))
	for i, email := range emails {
		results[i] = s.Classify(ctx, email, useRules, useAI)
	}
	return results
}

// finish resolves the relationship facet and guarantees every field is set
func (s *ClassifierService) finish(email *ParsedEmail, c *ClassifiedEmail) *ClassifiedEmail {
	c.Relationship = FromUnknown
	if s.contacts != nil && s.contacts.IsContact(email.From) {
		c.Relationship = FromContact
	}
	if !c.Category.IsValid() {
		c.Category = CategoryMessage
	}
	if !c.Importance.IsValid() {
		c.Importance = ImportanceRoutine
	}
	if !c.Attention.IsValid() {
		c.Attention = AttentionNone
	}
	if c.Reason == "" {
		c.Reason = "classified by " + string(c.Decider)
	}
	return c
}
