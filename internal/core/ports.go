package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with LLM providers.
// Implementations perform the provider call and extract the JSON payload,
// but do not validate it; schema validation belongs to the AIClassifier.
type LLMClient interface {
	// ClassifyEmail sends the classification prompt and returns the
	// parsed but unvalidated response
	ClassifyEmail(ctx context.Context, prompt string) (*ClassificationResponse, error)
}

// CacheRepository defines the interface for the TTL key/value cache.
// Values are opaque byte slices; expiry is checked lazily on Get and an
// expired entry is removed there, no implementation runs its own sweep.
// Concurrent writers to the same key race under last-write-wins.
type CacheRepository interface {
	// Get retrieves the value for key, reporting false when the key is
	// absent or its entry has expired
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key with the given time-to-live
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Invalidate removes the entry for key if present
	Invalidate(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error
}

// RuleStore persists learned classification rules across restarts
type RuleStore interface {
	// Load returns all persisted rules
	Load(ctx context.Context) ([]*LearnedRule, error)

	// Save upserts a rule by its signature
	Save(ctx context.Context, rule *LearnedRule) error
}

// ContactChecker resolves the relationship facet for a sender address
type ContactChecker interface {
	// IsContact reports whether the address belongs to a known contact
	IsContact(address string) bool
}
