package core

import (
	"sort"
)

// Synthesizer orders, caps and summarizes enriched entities into a bounded
// digest timeline. It is pure; the returned timeline is never mutated.
type Synthesizer struct {
	maxFeatured int
}

// NewSynthesizer creates a synthesizer. maxFeatured caps the featured list;
// zero or negative means no cap.
func NewSynthesizer(maxFeatured int) *Synthesizer {
	return &Synthesizer{maxFeatured: maxFeatured}
}

// BudgetFor returns the word budget for a digest over totalEmails messages.
// Budgets are non-decreasing across the breakpoints.
func BudgetFor(totalEmails int) WordBudget {
	switch {
	case totalEmails <= 10:
		return WordBudget{Min: 60, Max: 90}
	case totalEmails <= 30:
		return WordBudget{Min: 90, Max: 120}
	case totalEmails <= 100:
		return WordBudget{Min: 120, Max: 150}
	default:
		return WordBudget{Min: 150, Max: 180}
	}
}

// Synthesize builds the digest timeline from enriched, deduplicated
// entities. Featured entities are sorted by section rank then confidence,
// stable on ties; everything below the featured bar is counted into the
// noise breakdown by category.
func (s *Synthesizer) Synthesize(entities []*DigestEntity, totalEmails int, orphaned []*DigestEntity) *DigestTimeline {
	timeline := &DigestTimeline{
		NoiseBreakdown:        make(map[Category]int),
		OrphanedTimeSensitive: orphaned,
		TotalEmails:           totalEmails,
		Budget:                BudgetFor(totalEmails),
	}

	var featured []*DigestEntity
	for _, entity := range entities {
		switch entity.ResolvedImportance {
		case ImportanceCritical:
			timeline.CriticalCount++
		case ImportanceTimeSensitive:
			timeline.TimeSensitiveCount++
		case ImportanceRoutine:
			timeline.RoutineCount++
		}

		if entity.Section.Rank() >= SectionWorthKnowing.Rank() {
			featured = append(featured, entity)
		} else {
			timeline.NoiseBreakdown[entity.Category()]++
		}
	}

	sort.SliceStable(featured, func(i, j int) bool {
		ri, rj := featured[i].Section.Rank(), featured[j].Section.Rank()
		if ri != rj {
			return ri > rj
		}
		return featured[i].Confidence() > featured[j].Confidence()
	})

	if s.maxFeatured > 0 && len(featured) > s.maxFeatured {
		for _, overflow := range featured[s.maxFeatured:] {
			timeline.NoiseBreakdown[overflow.Category()]++
		}
		featured = featured[:s.maxFeatured]
	}

	timeline.Featured = featured
	return timeline
}
