package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackClassify(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		body       string
		wantCat    Category
		wantImport Importance
	}{
		{
			name:       "security keyword",
			subject:    "Suspicious activity detected",
			wantCat:    CategoryNotification,
			wantImport: ImportanceCritical,
		},
		{
			name:       "security outranks receipt wording",
			subject:    "Fraud alert: payment blocked",
			body:       "A payment on your invoice was blocked.",
			wantCat:    CategoryNotification,
			wantImport: ImportanceCritical,
		},
		{
			name:       "one-time code",
			subject:    "Your verification code",
			wantCat:    CategoryNotification,
			wantImport: ImportanceTimeSensitive,
		},
		{
			name:       "receipt keyword in body",
			subject:    "Thanks!",
			body:       "Your order confirmation is attached.",
			wantCat:    CategoryReceipt,
			wantImport: ImportanceRoutine,
		},
		{
			name:       "travel keyword",
			subject:    "Boarding pass for Tuesday",
			wantCat:    CategoryEvent,
			wantImport: ImportanceTimeSensitive,
		},
		{
			name:       "promotion keyword",
			subject:    "Weekend sale starts now",
			wantCat:    CategoryPromotion,
			wantImport: ImportanceLow,
		},
		{
			name:       "deadline keyword",
			subject:    "Your subscription expires soon",
			wantCat:    CategoryNotification,
			wantImport: ImportanceTimeSensitive,
		},
		{
			name:       "no keyword falls through to message",
			subject:    "hey",
			body:       "how have you been?",
			wantCat:    CategoryMessage,
			wantImport: ImportanceRoutine,
		},
		{
			name:       "empty email still classifies",
			wantCat:    CategoryMessage,
			wantImport: ImportanceRoutine,
		},
	}

	f := NewFallbackClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := f.Classify(&ParsedEmail{Subject: tt.subject, Body: tt.body})
			require.NotNil(t, c)
			assert.Equal(t, tt.wantCat, c.Category)
			assert.Equal(t, tt.wantImport, c.Importance)
			assert.Equal(t, DeciderFallback, c.Decider)
			assert.Greater(t, c.Confidence, 0.0)
			assert.LessOrEqual(t, c.Confidence, 1.0)
		})
	}
}
