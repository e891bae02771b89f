package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEnricher() *Enricher {
	return NewEnricher(60*time.Minute, 7, 24*time.Hour, zap.NewNop())
}

func entityAt(importance Importance, start, end *time.Time) *DigestEntity {
	return &DigestEntity{
		Kind:         KindEvent,
		Title:        "test entity",
		SenderDomain: "example.com",
		Subject:      "test entity",
		Source: &ClassifiedEmail{
			Category:   CategoryEvent,
			Importance: importance,
			Confidence: 0.8,
		},
		WindowStart: start,
		WindowEnd:   end,
	}
}

func ts(t time.Time) *time.Time { return &t }

func TestEnrichSectionBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		importance  Importance
		start       *time.Time
		end         *time.Time
		wantSection Section
	}{
		{
			name:        "window already open",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(-10 * time.Minute)),
			end:         ts(now.Add(time.Hour)),
			wantSection: SectionToday,
		},
		{
			name:        "starts exactly at the horizon",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(60 * time.Minute)),
			wantSection: SectionToday,
		},
		{
			name:        "starts one minute past the horizon",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(61 * time.Minute)),
			wantSection: SectionComingUp,
		},
		{
			name:        "starts within the week",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(6 * 24 * time.Hour)),
			wantSection: SectionComingUp,
		},
		{
			name:        "starts beyond the week",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(9 * 24 * time.Hour)),
			wantSection: SectionWorthKnowing,
		},
		{
			name:        "explicit end in the past",
			importance:  ImportanceTimeSensitive,
			start:       ts(now.Add(-48 * time.Hour)),
			end:         ts(now.Add(-24 * time.Hour)),
			wantSection: SectionSkip,
		},
		{
			name:        "start-only window inside the grace period",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(-23 * time.Hour)),
			wantSection: SectionToday,
		},
		{
			name:        "start-only window past the grace period",
			importance:  ImportanceRoutine,
			start:       ts(now.Add(-25 * time.Hour)),
			wantSection: SectionSkip,
		},
		{
			name:        "critical before its window opens",
			importance:  ImportanceCritical,
			start:       ts(now.Add(5 * 24 * time.Hour)),
			wantSection: SectionCritical,
		},
	}

	e := newTestEnricher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := entityAt(tt.importance, tt.start, tt.end)
			e.Enrich([]*DigestEntity{d}, now)
			assert.Equal(t, tt.wantSection, d.Section)
			assert.NotEmpty(t, d.DecayReason)
		})
	}
}

// A critical deadline must decay one way only as the reference time advances:
// critical while pending, today once the window opens, skip once it is stale.
func TestEnrichMonotonicDecay(t *testing.T) {
	received := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := received.Add(24 * time.Hour)

	steps := []struct {
		now         time.Time
		wantSection Section
	}{
		{received, SectionCritical},
		{due, SectionToday},
		{due.Add(24 * time.Hour), SectionSkip},
	}

	e := newTestEnricher()
	lastRank := SectionCritical.Rank() + 1
	for _, step := range steps {
		d := entityAt(ImportanceCritical, ts(due), nil)
		d.Kind = KindDeadline
		e.Enrich([]*DigestEntity{d}, step.now)

		assert.Equal(t, step.wantSection, d.Section, "at %s", step.now)
		assert.Less(t, d.Section.Rank(), lastRank, "decay must be one-directional")
		lastRank = d.Section.Rank()
	}
}

func TestEnrichWindowlessEntities(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e := newTestEnricher()

	t.Run("same-day flag routes to today", func(t *testing.T) {
		d := entityAt(ImportanceRoutine, nil, nil)
		d.SameDay = true
		e.Enrich([]*DigestEntity{d}, now)
		assert.Equal(t, SectionToday, d.Section)
		assert.Equal(t, ImportanceTimeSensitive, d.ResolvedImportance)
	})

	t.Run("windowless critical stays critical", func(t *testing.T) {
		d := entityAt(ImportanceCritical, nil, nil)
		d.Kind = KindNotification
		e.Enrich([]*DigestEntity{d}, now)
		assert.Equal(t, SectionCritical, d.Section)
		assert.False(t, d.TimeOrphan)
	})

	t.Run("temporal kind without a window is an orphan", func(t *testing.T) {
		d := entityAt(ImportanceTimeSensitive, nil, nil)
		d.Kind = KindDeadline
		e.Enrich([]*DigestEntity{d}, now)
		assert.True(t, d.TimeOrphan)
		assert.Equal(t, SectionWorthKnowing, d.Section)

		orphans := OrphanedTimeSensitive([]*DigestEntity{d})
		require.Len(t, orphans, 1)
	})

	t.Run("promotions land in everything else", func(t *testing.T) {
		d := entityAt(ImportanceLow, nil, nil)
		d.Kind = KindPromo
		d.Source.Category = CategoryPromotion
		e.Enrich([]*DigestEntity{d}, now)
		assert.Equal(t, SectionEverythingElse, d.Section)
		assert.Equal(t, ImportanceLow, d.ResolvedImportance)
	})
}
