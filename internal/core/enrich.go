package core

import (
	"time"

	"go.uber.org/zap"
)

// Enricher assigns each digest entity to exactly one section given a
// reference time. Transitions are monotonic as time advances: critical
// decays to today and then to skip, never the reverse, and an entity that
// reaches skip does not re-enter a visible section.
type Enricher struct {
	todayHorizon time.Duration
	upcomingDays int
	staleGrace   time.Duration
	logger       *zap.Logger
}

// NewEnricher creates an enricher. todayHorizon is the look-ahead that
// still counts as today (60 minutes in the contract), upcomingDays bounds
// the coming-up section and staleGrace is how long a start-only window
// stays visible after its start has passed.
func NewEnricher(todayHorizon time.Duration, upcomingDays int, staleGrace time.Duration, logger *zap.Logger) *Enricher {
	return &Enricher{
		todayHorizon: todayHorizon,
		upcomingDays: upcomingDays,
		staleGrace:   staleGrace,
		logger:       logger,
	}
}

// Enrich resolves section, importance and decay reason for every entity
// against now. It is total: unparseable or missing temporal data degrades
// to the non-temporal sections, never to an error.
func (e *Enricher) Enrich(entities []*DigestEntity, now time.Time) []*DigestEntity {
	for _, entity := range entities {
		e.resolve(entity, now)
	}
	if e.logger != nil {
		e.logger.Debug("Enriched entities",
			zap.Int("count", len(entities)),
			zap.Time("now", now))
	}
	return entities
}

func (e *Enricher) resolve(d *DigestEntity, now time.Time) {
	importance := ImportanceRoutine
	if d.Source != nil {
		importance = d.Source.Importance
	}

	if d.HasTimeframe() {
		if e.windowElapsed(d, now) {
			d.Section = SectionSkip
			d.ResolvedImportance = ImportanceLow
			d.DecayReason = "window elapsed"
			return
		}
		start := *d.WindowStart
		switch {
		case importance == ImportanceCritical && now.Before(start):
			// Time-independent override: critical until the deadline
			// itself arrives, then the one-way decay begins.
			d.Section = SectionCritical
			d.ResolvedImportance = ImportanceCritical
			d.DecayReason = "categorically critical"
		case !now.Before(start):
			d.Section = SectionToday
			d.ResolvedImportance = atLeastTimeSensitive(importance)
			d.DecayReason = "window has opened"
		case start.Sub(now) <= e.todayHorizon:
			d.Section = SectionToday
			d.ResolvedImportance = atLeastTimeSensitive(importance)
			d.DecayReason = "starts within the today horizon"
		case start.Sub(now) <= time.Duration(e.upcomingDays)*24*time.Hour:
			d.Section = SectionComingUp
			d.ResolvedImportance = atLeastTimeSensitive(importance)
			d.DecayReason = "within the weekly horizon"
		default:
			// Too far out to schedule; moves into coming_up as now
			// advances, which keeps the decay one-directional.
			d.Section = SectionWorthKnowing
			d.ResolvedImportance = importance
			d.DecayReason = "beyond the weekly horizon"
		}
		return
	}

	if importance == ImportanceCritical {
		d.Section = SectionCritical
		d.ResolvedImportance = ImportanceCritical
		d.DecayReason = "categorically critical"
		return
	}

	if d.SameDay {
		d.Section = SectionToday
		d.ResolvedImportance = atLeastTimeSensitive(importance)
		d.DecayReason = "same-day delivery"
		return
	}

	if d.Kind.IsTemporal() {
		d.TimeOrphan = true
		d.DecayReason = "temporal window unresolved"
	} else {
		d.DecayReason = "no temporal signal"
	}

	if d.Category() == CategoryPromotion || d.Kind == KindPromo || importance == ImportanceLow {
		d.Section = SectionEverythingElse
		d.ResolvedImportance = ImportanceLow
		return
	}
	d.Section = SectionWorthKnowing
	d.ResolvedImportance = importance
}

// windowElapsed reports whether the entity's window is fully in the past.
// A window with an explicit end elapses strictly after the end; a start-only
// window elapses once the stale grace after its start has run out.
func (e *Enricher) windowElapsed(d *DigestEntity, now time.Time) bool {
	if d.WindowEnd != nil {
		return now.After(*d.WindowEnd)
	}
	return !now.Before(d.WindowStart.Add(e.staleGrace))
}

func atLeastTimeSensitive(i Importance) Importance {
	if i == ImportanceCritical {
		return ImportanceCritical
	}
	return ImportanceTimeSensitive
}

// OrphanedTimeSensitive filters the entities that were time-relevant but
// whose window could not be resolved, so a synthesizer can surface them
// instead of silently dropping them
func OrphanedTimeSensitive(entities []*DigestEntity) []*DigestEntity {
	var orphans []*DigestEntity
	for _, d := range entities {
		if d.TimeOrphan {
			orphans = append(orphans, d)
		}
	}
	return orphans
}
