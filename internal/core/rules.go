package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/utils"
)

// LearnedRule is a classification pattern learned from a user correction,
// keyed by the sender/subject signature of the corrected email
type LearnedRule struct {
	Signature  string
	Domain     string
	SubjectKey string
	Category   Category
	Importance Importance
	Attention  Attention
	Confidence float64
	Hits       int
	UpdatedAt  time.Time
}

// RulesEngine matches emails against rules learned from historical
// corrections. It is the second cascade stage; a match below the minimum
// confidence is treated as no match so the cascade keeps going.
type RulesEngine struct {
	mu            sync.RWMutex
	rules         map[string]*LearnedRule
	store         RuleStore
	logger        *zap.Logger
	minConfidence float64
}

// NewRulesEngine creates a rules engine. A nil store keeps rules in memory
// only.
func NewRulesEngine(store RuleStore, logger *zap.Logger, minConfidence float64) *RulesEngine {
	return &RulesEngine{
		rules:         make(map[string]*LearnedRule),
		store:         store,
		logger:        logger,
		minConfidence: minConfidence,
	}
}

// LoadRules populates the engine from the rule store
func (e *RulesEngine) LoadRules(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	rules, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range rules {
		e.rules[r.Signature] = r
	}
	e.logger.Info("Loaded learned rules", zap.Int("count", len(rules)))
	return nil
}

// RuleSignature derives the lookup key for an email: sender domain plus a
// shape-normalized subject prefix, so order numbers and dates collapse
// into one signature
func RuleSignature(email *ParsedEmail) string {
	return email.SenderDomain() + "\x00" + subjectKey(email.Subject)
}

func subjectKey(subject string) string {
	tokens := strings.Fields(utils.CanonicalizeSubject(subject))
	if len(tokens) > 6 {
		tokens = tokens[:6]
	}
	for i, tok := range tokens {
		if strings.IndexFunc(tok, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			tokens[i] = "#"
		}
	}
	return strings.Join(tokens, " ")
}

// Match returns a classification when a sufficiently confident learned rule
// covers the email's signature
func (e *RulesEngine) Match(email *ParsedEmail) (*ClassifiedEmail, bool) {
	e.mu.RLock()
	rule, ok := e.rules[RuleSignature(email)]
	e.mu.RUnlock()

	if !ok || rule.Confidence < e.minConfidence {
		return nil, false
	}

	return &ClassifiedEmail{
		Category:   rule.Category,
		Importance: rule.Importance,
		Confidence: rule.Confidence,
		Attention:  rule.Attention,
		Decider:    DeciderRule,
		Reason:     "learned from prior corrections",
	}, true
}

// LearnCorrection records a user correction as a rule for the email's
// signature. Repeated corrections for the same signature raise the rule's
// confidence.
func (e *RulesEngine) LearnCorrection(ctx context.Context, email *ParsedEmail, corrected *ClassifiedEmail) error {
	sig := RuleSignature(email)

	e.mu.Lock()
	rule, ok := e.rules[sig]
	if !ok {
		rule = &LearnedRule{
			Signature:  sig,
			Domain:     email.SenderDomain(),
			SubjectKey: subjectKey(email.Subject),
		}
		e.rules[sig] = rule
	}
	rule.Category = corrected.Category
	rule.Importance = corrected.Importance
	rule.Attention = corrected.Attention
	rule.Hits++
	rule.Confidence = 0.6 + 0.1*float64(rule.Hits)
	if rule.Confidence > 0.95 {
		rule.Confidence = 0.95
	}
	rule.UpdatedAt = time.Now()
	saved := *rule
	e.mu.Unlock()

	e.logger.Debug("Learned correction",
		zap.String("domain", saved.Domain),
		zap.String("category", string(saved.Category)),
		zap.Int("hits", saved.Hits))

	if e.store == nil {
		return nil
	}
	return e.store.Save(ctx, &saved)
}
