package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	saved []*LearnedRule
	rules []*LearnedRule
}

func (s *recordingStore) Load(ctx context.Context) ([]*LearnedRule, error) {
	return s.rules, nil
}

func (s *recordingStore) Save(ctx context.Context, rule *LearnedRule) error {
	s.saved = append(s.saved, rule)
	return nil
}

func TestRuleSignatureCollapsesVariableParts(t *testing.T) {
	tests := []struct {
		name string
		a, b *ParsedEmail
		same bool
	}{
		{
			name: "order numbers collapse",
			a:    &ParsedEmail{From: "shop@store.example", Subject: "Order 12345 shipped"},
			b:    &ParsedEmail{From: "shop@store.example", Subject: "Order 99921 shipped"},
			same: true,
		},
		{
			name: "long subjects compare on their prefix",
			a:    &ParsedEmail{From: "news@letter.example", Subject: "Weekly digest of things you may have missed today"},
			b:    &ParsedEmail{From: "news@letter.example", Subject: "Weekly digest of things you may have tomorrow instead"},
			same: true,
		},
		{
			name: "different senders never collide",
			a:    &ParsedEmail{From: "shop@store.example", Subject: "Order 12345 shipped"},
			b:    &ParsedEmail{From: "shop@other.example", Subject: "Order 12345 shipped"},
			same: false,
		},
		{
			name: "different subject shapes differ",
			a:    &ParsedEmail{From: "shop@store.example", Subject: "Order 12345 shipped"},
			b:    &ParsedEmail{From: "shop@store.example", Subject: "Order 12345 cancelled"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, RuleSignature(tt.a), RuleSignature(tt.b))
			} else {
				assert.NotEqual(t, RuleSignature(tt.a), RuleSignature(tt.b))
			}
		})
	}
}

func TestRulesEngineLearnAndMatch(t *testing.T) {
	engine := NewRulesEngine(nil, zap.NewNop(), 0.7)
	ctx := context.Background()
	email := &ParsedEmail{From: "billing@utility.example", Subject: "Statement for account 4411"}
	correction := &ClassifiedEmail{
		Category:   CategoryReceipt,
		Importance: ImportanceRoutine,
		Attention:  AttentionNone,
	}

	_, ok := engine.Match(email)
	assert.False(t, ok, "no rule learned yet")

	// One correction yields confidence 0.7, right at the gate
	require.NoError(t, engine.LearnCorrection(ctx, email, correction))
	c, ok := engine.Match(email)
	require.True(t, ok)
	assert.Equal(t, CategoryReceipt, c.Category)
	assert.Equal(t, DeciderRule, c.Decider)
	assert.InDelta(t, 0.7, c.Confidence, 1e-9)

	// Repeated corrections raise confidence up to the cap
	for i := 0; i < 10; i++ {
		require.NoError(t, engine.LearnCorrection(ctx, email, correction))
	}
	c, ok = engine.Match(email)
	require.True(t, ok)
	assert.InDelta(t, 0.95, c.Confidence, 1e-9)
}

func TestRulesEngineConfidenceGate(t *testing.T) {
	engine := NewRulesEngine(nil, zap.NewNop(), 0.75)
	ctx := context.Background()
	email := &ParsedEmail{From: "billing@utility.example", Subject: "Statement for account 4411"}

	// A single correction lands at 0.7, below this engine's gate
	require.NoError(t, engine.LearnCorrection(ctx, email, &ClassifiedEmail{
		Category: CategoryReceipt, Importance: ImportanceRoutine, Attention: AttentionNone,
	}))
	_, ok := engine.Match(email)
	assert.False(t, ok)
}

func TestRulesEnginePersistence(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	engine := NewRulesEngine(store, zap.NewNop(), 0.7)
	email := &ParsedEmail{From: "billing@utility.example", Subject: "Statement for account 4411"}

	require.NoError(t, engine.LearnCorrection(ctx, email, &ClassifiedEmail{
		Category: CategoryReceipt, Importance: ImportanceRoutine, Attention: AttentionNone,
	}))
	require.Len(t, store.saved, 1)
	assert.Equal(t, "utility.example", store.saved[0].Domain)
	assert.Equal(t, 1, store.saved[0].Hits)

	// A fresh engine sees the persisted rule after loading
	restored := NewRulesEngine(&recordingStore{rules: store.saved}, zap.NewNop(), 0.7)
	require.NoError(t, restored.LoadRules(ctx))
	_, ok := restored.Match(email)
	assert.True(t, ok)
}
