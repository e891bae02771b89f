package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

var received = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func email(subject, body string) *core.ParsedEmail {
	return &core.ParsedEmail{
		From:       "sender@example.com",
		Subject:    subject,
		Body:       body,
		ReceivedAt: received,
	}
}

func classified(category core.Category) *core.ClassifiedEmail {
	return &core.ClassifiedEmail{
		Category:   category,
		Importance: core.ImportanceRoutine,
		Confidence: 0.8,
	}
}

func TestExtractSkipsCorrespondence(t *testing.T) {
	x := NewExtractor(zap.NewNop())
	entities := x.Extract(email("hey", "how are you"), classified(core.CategoryMessage))
	assert.Empty(t, entities)
}

func TestExtractKinds(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		category core.Category
		wantKind core.EntityKind
	}{
		{"flight booking", "Your flight itinerary", "", core.CategoryEvent, core.KindFlight},
		{"plain event", "Team offsite", "RSVP by Friday", core.CategoryEvent, core.KindEvent},
		{"promotion", "Huge spring sale", "", core.CategoryPromotion, core.KindPromo},
		{"receipt", "Payment received", "", core.CategoryReceipt, core.KindNotification},
		{"deadline wording", "Your card expires soon", "", core.CategoryNotification, core.KindDeadline},
		{"reminder wording", "Reminder about your appointment", "", core.CategoryNotification, core.KindReminder},
		{"plain notification", "New login to your account", "", core.CategoryNotification, core.KindNotification},
	}

	x := NewExtractor(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := x.Extract(email(tt.subject, tt.body), classified(tt.category))
			require.Len(t, entities, 1)
			assert.Equal(t, tt.wantKind, entities[0].Kind)
			assert.Equal(t, "example.com", entities[0].SenderDomain)
			assert.NotNil(t, entities[0].Source)
		})
	}
}

func TestExtractResolvesWindows(t *testing.T) {
	x := NewExtractor(zap.NewNop())

	t.Run("tomorrow resolves relative to receipt", func(t *testing.T) {
		entities := x.Extract(email("Dinner tomorrow", ""), classified(core.CategoryEvent))
		require.Len(t, entities, 1)
		require.NotNil(t, entities[0].WindowStart)
		assert.Equal(t, received.Add(24*time.Hour), *entities[0].WindowStart)
	})

	t.Run("tonight sets the same-day flag", func(t *testing.T) {
		entities := x.Extract(email("Concert tonight", ""), classified(core.CategoryEvent))
		require.Len(t, entities, 1)
		assert.True(t, entities[0].SameDay)
		assert.Nil(t, entities[0].WindowStart)
	})

	t.Run("iso date resolves to that day", func(t *testing.T) {
		entities := x.Extract(email("Renewal notice", "Your plan renews on 2025-03-20."), classified(core.CategoryNotification))
		require.Len(t, entities, 1)
		require.NotNil(t, entities[0].WindowStart)
		assert.Equal(t, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), *entities[0].WindowStart)
	})

	t.Run("no anchor leaves the window empty", func(t *testing.T) {
		entities := x.Extract(email("New login to your account", "from a new device"), classified(core.CategoryNotification))
		require.Len(t, entities, 1)
		assert.Nil(t, entities[0].WindowStart)
		assert.False(t, entities[0].SameDay)
	})
}

func TestExtractLocation(t *testing.T) {
	x := NewExtractor(zap.NewNop())
	body := "You're invited!\nLocation: 12 Main St, Springfield\nSee you there."

	entities := x.Extract(email("Birthday party", body), classified(core.CategoryEvent))
	require.Len(t, entities, 1)
	assert.Equal(t, "12 Main St, Springfield", entities[0].Location)
	assert.True(t, entities[0].HasLocation())
}

func TestExtractAllPairsInputs(t *testing.T) {
	x := NewExtractor(zap.NewNop())
	emails := []*core.ParsedEmail{
		email("hey", "how are you"),
		email("Payment received", ""),
		email("Team offsite tomorrow", ""),
	}
	results := []*core.ClassifiedEmail{
		classified(core.CategoryMessage),
		classified(core.CategoryReceipt),
		classified(core.CategoryEvent),
	}

	entities := x.ExtractAll(emails, results)
	require.Len(t, entities, 2)
	assert.Equal(t, core.KindNotification, entities[0].Kind)
	assert.Equal(t, core.KindEvent, entities[1].Kind)
}
