package filter

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/adapters/cache"
	"github.com/mikey/llm-inbox-digest/internal/core"
)

func newTestFilter(repo core.CacheRepository) *TaggingFilter {
	service := core.NewClassifierService(
		core.NewTypeMapper(nil),
		nil,
		nil,
		core.NewFallbackClassifier(),
		nil,
		zap.NewNop(),
	)
	headers := TaggingHeaders{
		Category:   "X-Digest-Category",
		Importance: "X-Digest-Importance",
		Attention:  "X-Digest-Attention",
		Decider:    "X-Digest-Decider",
		Reason:     "X-Digest-Reason",
	}
	return NewTaggingFilter(service, repo, zap.NewNop(), ":0", headers,
		"", 0, false, "", false, false, false,
		30*time.Minute, time.Hour)
}

func filterTestEmail(messageID string) *core.ParsedEmail {
	return &core.ParsedEmail{
		MessageID:  messageID,
		From:       "billing@utility.example",
		To:         []string{"me@example.com"},
		Subject:    "Your invoice",
		Body:       "Amount due: $30",
		ReceivedAt: time.Now(),
	}
}

func TestTaggingFilterServesCachedTriage(t *testing.T) {
	repo := cache.NewMemoryCache(zap.NewNop())
	f := newTestFilter(repo)

	seeded := &core.ClassifiedEmail{
		Category:   core.CategoryPromotion,
		Importance: core.ImportanceLow,
		Attention:  core.AttentionNone,
		Decider:    core.DeciderAI,
		Reason:     "previously triaged",
	}
	raw, err := json.Marshal(seeded)
	require.NoError(t, err)
	repo.Put(context.Background(), triageKey("msg-1"), raw, time.Minute)

	result, err := f.ProcessEmail(context.Background(), filterTestEmail("msg-1"))
	require.NoError(t, err)
	assert.Equal(t, core.CategoryPromotion, result.Category)
	assert.Equal(t, core.DeciderAI, result.Decider)
	assert.Equal(t, "previously triaged", result.Reason)
}

func TestTaggingFilterCachesClassification(t *testing.T) {
	repo := cache.NewMemoryCache(zap.NewNop())
	f := newTestFilter(repo)

	result, err := f.ProcessEmail(context.Background(), filterTestEmail("msg-2"))
	require.NoError(t, err)

	raw, ok := repo.Get(context.Background(), triageKey("msg-2"))
	require.True(t, ok, "classification should be cached under the triage key")

	var cached core.ClassifiedEmail
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, result.Category, cached.Category)
	assert.Equal(t, result.Decider, cached.Decider)
}

func TestTaggingFilterSkipsCacheWithoutMessageID(t *testing.T) {
	repo := cache.NewMemoryCache(zap.NewNop())
	f := newTestFilter(repo)

	result, err := f.ProcessEmail(context.Background(), filterTestEmail(""))
	require.NoError(t, err)
	assert.NotNil(t, result)

	_, ok := repo.Get(context.Background(), triageKey(""))
	assert.False(t, ok)
}

func TestTaggingFilterNilCacheClassifies(t *testing.T) {
	f := newTestFilter(nil)

	result, err := f.ProcessEmail(context.Background(), filterTestEmail("msg-3"))
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.Category.IsValid())
}

func TestSMTPSessionDataPopulatesCaches(t *testing.T) {
	repo := cache.NewMemoryCache(zap.NewNop())
	f := newTestFilter(repo)

	s := &smtpSession{
		filter:     f,
		sender:     "billing@utility.example",
		recipients: []string{"me@example.com"},
	}

	rawMessage := "Subject: Your invoice\r\n" +
		"Message-Id: <msg-42@utility.example>\r\n" +
		"From: billing@utility.example\r\n" +
		"Date: Mon, 10 Mar 2025 09:00:00 +0000\r\n" +
		"\r\n" +
		"Amount due: $30\r\n"

	require.NoError(t, s.Data(strings.NewReader(rawMessage)))

	text, ok := repo.Get(context.Background(), parsedKey("msg-42@utility.example"))
	require.True(t, ok, "extracted text should be cached under the parsed key")
	assert.Contains(t, string(text), "Amount due: $30")

	_, ok = repo.Get(context.Background(), triageKey("msg-42@utility.example"))
	assert.True(t, ok, "classification should be cached under the triage key")
}
