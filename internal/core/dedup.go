package core

import (
	"github.com/mikey/llm-inbox-digest/internal/utils"
)

// Deduplicator collapses duplicate entities by canonical signature. It is
// pure: entities are dropped, never altered.
type Deduplicator struct{}

// NewDeduplicator creates a deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// EntitySignature is the canonical duplicate-detection key: sender domain,
// canonicalized subject and category
func EntitySignature(d *DigestEntity) string {
	return d.SenderDomain + "\x00" + utils.CanonicalizeSubject(d.Subject) + "\x00" + string(d.Category())
}

// Deduplicate retains exactly one entity per signature: the one with the
// highest classification confidence, ties broken by preferring a resolvable
// temporal window, then by input order. Survivor order is stable.
func (dd *Deduplicator) Deduplicate(entities []*DigestEntity) []*DigestEntity {
	best := make(map[string]*DigestEntity)
	var signatures []string

	for _, entity := range entities {
		sig := EntitySignature(entity)
		incumbent, seen := best[sig]
		if !seen {
			best[sig] = entity
			signatures = append(signatures, sig)
			continue
		}
		if betterDuplicate(entity, incumbent) {
			best[sig] = entity
		}
	}

	result := make([]*DigestEntity, 0, len(signatures))
	for _, sig := range signatures {
		result = append(result, best[sig])
	}
	return result
}

// betterDuplicate reports whether candidate should replace incumbent.
// Equal confidence and window presence keep the incumbent, which preserves
// first-seen order.
func betterDuplicate(candidate, incumbent *DigestEntity) bool {
	if candidate.Confidence() != incumbent.Confidence() {
		return candidate.Confidence() > incumbent.Confidence()
	}
	if candidate.HasTimeframe() != incumbent.HasTimeframe() {
		return candidate.HasTimeframe()
	}
	return false
}
