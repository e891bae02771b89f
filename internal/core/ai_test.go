package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

func (c *fakeCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type countingLLM struct {
	calls int
	resp  *ClassificationResponse
	err   error
}

func (l *countingLLM) ClassifyEmail(ctx context.Context, prompt string) (*ClassificationResponse, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.resp, nil
}

func validResponse() *ClassificationResponse {
	return &ClassificationResponse{
		Category:   "receipt",
		Importance: "routine",
		Attention:  "none",
		Confidence: 0.85,
		Reason:     "looks like an order confirmation",
	}
}

func TestAIClassifierCachesValidResults(t *testing.T) {
	llm := &countingLLM{resp: validResponse()}
	cache := newFakeCache()
	ai := NewAIClassifier(llm, cache, true, zap.NewNop(), "test", time.Hour, time.Second, 0)
	email := testEmail("shop@store.example", "Your order #123", "Thanks for your purchase")

	first, err := ai.Classify(context.Background(), email)
	require.NoError(t, err)
	second, err := ai.Classify(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, 1, llm.calls, "second call should be served from cache")
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, DeciderAI, second.Decider)
}

func TestAIClassifierCacheKeyDependsOnInput(t *testing.T) {
	llm := &countingLLM{resp: validResponse()}
	ai := NewAIClassifier(llm, newFakeCache(), true, zap.NewNop(), "test", time.Hour, time.Second, 0)

	a := testEmail("shop@store.example", "Your order #123", "body")
	b := testEmail("shop@store.example", "Your order #123", "body")
	b.MessageID = "msg-2@test"

	_, err := ai.Classify(context.Background(), a)
	require.NoError(t, err)
	_, err = ai.Classify(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls, "a different message id must not share a cache entry")
}

func TestAIClassifierCallError(t *testing.T) {
	llm := &countingLLM{err: errors.New("connection refused")}
	cache := newFakeCache()
	ai := NewAIClassifier(llm, cache, true, zap.NewNop(), "bedrock", time.Hour, time.Second, 0)

	_, err := ai.Classify(context.Background(), testEmail("a@b.example", "subject", "body"))
	require.Error(t, err)

	var callErr *LLMCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "bedrock", callErr.Provider)
	assert.Equal(t, 0, cache.size(), "failed calls must not be cached")
}

func TestAIClassifierSchemaValidation(t *testing.T) {
	tests := []struct {
		name string
		resp *ClassificationResponse
	}{
		{
			name: "unknown category",
			resp: &ClassificationResponse{Category: "spam", Importance: "routine", Attention: "none", Confidence: 0.5, Reason: "r"},
		},
		{
			name: "unknown importance",
			resp: &ClassificationResponse{Category: "receipt", Importance: "urgent", Attention: "none", Confidence: 0.5, Reason: "r"},
		},
		{
			name: "confidence out of range",
			resp: &ClassificationResponse{Category: "receipt", Importance: "routine", Attention: "none", Confidence: 1.5, Reason: "r"},
		},
		{
			name: "missing reason",
			resp: &ClassificationResponse{Category: "receipt", Importance: "routine", Attention: "none", Confidence: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newFakeCache()
			ai := NewAIClassifier(&countingLLM{resp: tt.resp}, cache, true, zap.NewNop(), "test", time.Hour, time.Second, 0)

			_, err := ai.Classify(context.Background(), testEmail("a@b.example", "subject", "body"))
			require.Error(t, err)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.False(t, schemaErr.Result.OK())
			assert.Equal(t, 0, cache.size(), "invalid responses must not be cached")
		})
	}
}

func TestAIClassifierTruncatesBody(t *testing.T) {
	ai := NewAIClassifier(&countingLLM{resp: validResponse()}, newFakeCache(), true, zap.NewNop(), "test", time.Hour, time.Second, 16)
	email := testEmail("a@b.example", "subject", "0123456789abcdefTHIS PART IS DROPPED")

	prompt := ai.BuildPrompt(email)
	assert.Contains(t, prompt, "0123456789abcdef")
	assert.NotContains(t, prompt, "THIS PART IS DROPPED")
}

func TestAIClassifierTruncationKeepsValidUTF8(t *testing.T) {
	// A byte-boundary cut through "日本語" would leave a partial rune
	ai := NewAIClassifier(&countingLLM{resp: validResponse()}, newFakeCache(), true, zap.NewNop(), "test", time.Hour, time.Second, 4)
	email := testEmail("a@b.example", "subject", "日本語テキスト")

	prompt := ai.BuildPrompt(email)
	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "日")
	assert.NotContains(t, prompt, "語")
}

func TestAIClassifierCacheDisabled(t *testing.T) {
	llm := &countingLLM{resp: validResponse()}
	cache := newFakeCache()
	ai := NewAIClassifier(llm, cache, false, zap.NewNop(), "test", time.Hour, time.Second, 0)
	email := testEmail("shop@store.example", "Your order #123", "body")

	_, err := ai.Classify(context.Background(), email)
	require.NoError(t, err)
	_, err = ai.Classify(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, 2, llm.calls, "disabled cache must not short-circuit the call")
	assert.Equal(t, 0, cache.size(), "disabled cache must not be written")
}

func TestValidationResultString(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.OK())

	r.Add("category", "unknown value \"spam\"")
	r.Add("reason", "missing")
	assert.False(t, r.OK())
	assert.Equal(t, `category: unknown value "spam"; reason: missing`, r.String())
}
