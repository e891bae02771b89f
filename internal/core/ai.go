package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/utils"
)

// classifyPromptFormat is the prompt sent to every LLM provider.
// Providers share one format so the cache key is provider-independent.
const classifyPromptFormat = `You are an email triage system. Classify the following email.
Respond with a JSON object containing:
- category: one of "notification", "receipt", "event", "promotion", "message"
- importance: one of "critical", "time_sensitive", "routine", "low"
- attention: one of "action_required", "none"
- confidence: number between 0 and 1 (how confident you are in your assessment)
- reason: string (brief explanation of the classification)

Email:
From: %s
Subject: %s
Received: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// ClassificationResponse represents the structured response from the LLM
type ClassificationResponse struct {
	Category   string  `json:"category"`
	Importance string  `json:"importance"`
	Attention  string  `json:"attention"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Validate checks the response against the fixed schema: required fields,
// enum membership and numeric ranges
func (r *ClassificationResponse) Validate() *ValidationResult {
	result := &ValidationResult{}

	if !Category(r.Category).IsValid() {
		result.Add("category", fmt.Sprintf("unknown value %q", r.Category))
	}
	if !Importance(r.Importance).IsValid() {
		result.Add("importance", fmt.Sprintf("unknown value %q", r.Importance))
	}
	if !Attention(r.Attention).IsValid() {
		result.Add("attention", fmt.Sprintf("unknown value %q", r.Attention))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		result.Add("confidence", fmt.Sprintf("%g outside [0,1]", r.Confidence))
	}
	if r.Reason == "" {
		result.Add("reason", "missing")
	}

	return result
}

// AIClassifier wraps an LLM client with caching, a call timeout and schema
// validation. Identical (prompt, message id) pairs always hit the same cache
// key, so the external call is made at most once per email.
type AIClassifier struct {
	llm          LLMClient
	cache        CacheRepository
	cacheEnabled bool
	logger       *zap.Logger
	provider     string
	cacheTTL     time.Duration
	callTimeout  time.Duration
	maxBodySize  int
	text         *utils.TextProcessor
}

// NewAIClassifier creates a new AI classifier
func NewAIClassifier(
	llm LLMClient,
	cache CacheRepository,
	cacheEnabled bool,
	logger *zap.Logger,
	provider string,
	cacheTTL time.Duration,
	callTimeout time.Duration,
	maxBodySize int,
) *AIClassifier {
	return &AIClassifier{
		llm:          llm,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		logger:       logger,
		provider:     provider,
		cacheTTL:     cacheTTL,
		callTimeout:  callTimeout,
		maxBodySize:  maxBodySize,
		text:         utils.NewTextProcessor(logger),
	}
}

// BuildPrompt formats the classification prompt for an email. The body is
// truncated on a rune boundary so the prompt is always valid UTF-8.
func (a *AIClassifier) BuildPrompt(email *ParsedEmail) string {
	body := email.Body
	if a.maxBodySize > 0 {
		body = a.text.ProcessText(body, a.maxBodySize)
	}
	return fmt.Sprintf(classifyPromptFormat,
		email.From, email.Subject, email.ReceivedAt.Format(time.RFC3339), body)
}

// cacheKey derives a one-way key from the prompt text and the email's
// idempotency key, so identical inputs converge regardless of call order
func cacheKey(prompt, messageID string) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(messageID))
	return "classify:" + hex.EncodeToString(h.Sum(nil))
}

// Classify returns a validated classification for the email, from cache when
// possible. On a miss it makes exactly one provider call bounded by the
// configured timeout; failures surface as *LLMCallError or *SchemaError and
// nothing invalid is ever cached.
func (a *AIClassifier) Classify(ctx context.Context, email *ParsedEmail) (*ClassifiedEmail, error) {
	prompt := a.BuildPrompt(email)
	key := cacheKey(prompt, email.MessageID)

	if a.cacheEnabled {
		if raw, ok := a.cache.Get(ctx, key); ok {
			var resp ClassificationResponse
			if err := json.Unmarshal(raw, &resp); err == nil {
				a.logger.Debug("Classification cache hit",
					zap.String("message_id", email.MessageID))
				return a.toClassified(&resp), nil
			}
			// Unreadable entry, drop it and re-classify
			_ = a.cache.Invalidate(ctx, key)
		}
	}

	callCtx := ctx
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	resp, err := a.llm.ClassifyEmail(callCtx, prompt)
	if err != nil {
		return nil, &LLMCallError{Provider: a.provider, Err: err}
	}

	if result := resp.Validate(); !result.OK() {
		a.logger.Warn("LLM response failed schema validation",
			zap.String("message_id", email.MessageID),
			zap.String("violations", result.String()))
		return nil, &SchemaError{Result: result}
	}

	if a.cacheEnabled {
		if raw, err := json.Marshal(resp); err == nil {
			a.cache.Put(ctx, key, raw, a.cacheTTL)
		}
	}

	return a.toClassified(resp), nil
}

// toClassified converts a validated response into a classification.
// Relationship is resolved later by the cascade, not by the model.
func (a *AIClassifier) toClassified(resp *ClassificationResponse) *ClassifiedEmail {
	return &ClassifiedEmail{
		Category:   Category(resp.Category),
		Importance: Importance(resp.Importance),
		Confidence: resp.Confidence,
		Attention:  Attention(resp.Attention),
		Decider:    DeciderAI,
		Reason:     resp.Reason,
	}
}
