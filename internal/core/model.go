package core

import (
	"strings"
	"time"
)

// Category is the message type facet of a classification
type Category string

const (
	CategoryNotification Category = "notification"
	CategoryReceipt      Category = "receipt"
	CategoryEvent        Category = "event"
	CategoryPromotion    Category = "promotion"
	CategoryMessage      Category = "message"
)

// Categories lists every valid category value
var Categories = []Category{
	CategoryNotification,
	CategoryReceipt,
	CategoryEvent,
	CategoryPromotion,
	CategoryMessage,
}

// IsValid reports whether c is a member of the closed category set
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Importance is the urgency facet of a classification
type Importance string

const (
	ImportanceCritical      Importance = "critical"
	ImportanceTimeSensitive Importance = "time_sensitive"
	ImportanceRoutine       Importance = "routine"
	ImportanceLow           Importance = "low"
)

// Importances lists every valid importance value
var Importances = []Importance{
	ImportanceCritical,
	ImportanceTimeSensitive,
	ImportanceRoutine,
	ImportanceLow,
}

// IsValid reports whether i is a member of the importance set
func (i Importance) IsValid() bool {
	for _, known := range Importances {
		if i == known {
			return true
		}
	}
	return false
}

// Attention indicates whether the recipient needs to act on the message
type Attention string

const (
	AttentionActionRequired Attention = "action_required"
	AttentionNone           Attention = "none"
)

// IsValid reports whether a is a member of the attention set
func (a Attention) IsValid() bool {
	return a == AttentionActionRequired || a == AttentionNone
}

// Relationship records whether the sender is a known contact
type Relationship string

const (
	FromContact Relationship = "from_contact"
	FromUnknown Relationship = "from_unknown"
)

// Decider records which cascade stage produced a classification
type Decider string

const (
	DeciderTypeMapper Decider = "type_mapper"
	DeciderRule       Decider = "rule"
	DeciderAI         Decider = "ai"
	DeciderFallback   Decider = "fallback"
)

// ParsedEmail is an email after text extraction, as handed to the classifier.
// It is immutable once produced.
type ParsedEmail struct {
	MessageID  string
	ThreadID   string
	From       string
	To         []string
	Subject    string
	Body       string
	Headers    map[string][]string
	ReceivedAt time.Time
}

// SenderDomain returns the lowercased domain part of the From address,
// or an empty string if the address has no domain
func (e *ParsedEmail) SenderDomain() string {
	parts := strings.Split(e.From, "@")
	if len(parts) != 2 {
		return ""
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))
	return strings.TrimSuffix(domain, ">")
}

// ClassifiedEmail is the result of running an email through the cascade.
// Every field is always populated; the struct is never mutated downstream.
type ClassifiedEmail struct {
	Category     Category
	Importance   Importance
	Confidence   float64
	Attention    Attention
	Relationship Relationship
	Decider      Decider
	Reason       string
}

// EntityKind is the variant tag of a digest entity
type EntityKind string

const (
	KindEvent        EntityKind = "event"
	KindDeadline     EntityKind = "deadline"
	KindReminder     EntityKind = "reminder"
	KindPromo        EntityKind = "promo"
	KindFlight       EntityKind = "flight"
	KindNotification EntityKind = "notification"
)

// IsTemporal reports whether entities of this kind are expected to carry
// a temporal window
func (k EntityKind) IsTemporal() bool {
	switch k {
	case KindEvent, KindDeadline, KindReminder, KindFlight:
		return true
	}
	return false
}

// Section is the digest section an entity resolves into
type Section string

const (
	SectionCritical       Section = "critical"
	SectionToday          Section = "today"
	SectionComingUp       Section = "coming_up"
	SectionWorthKnowing   Section = "worth_knowing"
	SectionEverythingElse Section = "everything_else"
	SectionSkip           Section = "skip"
)

// sectionRank orders sections for featured sorting; higher is more urgent
var sectionRank = map[Section]int{
	SectionCritical:       5,
	SectionToday:          4,
	SectionComingUp:       3,
	SectionWorthKnowing:   2,
	SectionEverythingElse: 1,
	SectionSkip:           0,
}

// Rank returns the priority rank of the section
func (s Section) Rank() int {
	return sectionRank[s]
}

// DigestEntity is a single item extracted from a classified email.
// Enrichment sets Section, ResolvedImportance, DecayReason and TimeOrphan;
// the deduplicator only drops entities, never alters them.
type DigestEntity struct {
	Kind         EntityKind
	Title        string
	SenderDomain string
	Subject      string
	Source       *ClassifiedEmail
	Location     string
	WindowStart  *time.Time
	WindowEnd    *time.Time
	SameDay      bool

	Section            Section
	ResolvedImportance Importance
	DecayReason        string
	TimeOrphan         bool
}

// HasLocation reports the has-location capability
func (d *DigestEntity) HasLocation() bool {
	return d.Location != ""
}

// HasTimeframe reports the has-timeframe capability
func (d *DigestEntity) HasTimeframe() bool {
	return d.WindowStart != nil
}

// HasDeadline reports the has-deadline capability
func (d *DigestEntity) HasDeadline() bool {
	return d.Kind == KindDeadline && d.WindowStart != nil
}

// Confidence returns the confidence of the source classification,
// or zero when no source is attached
func (d *DigestEntity) Confidence() float64 {
	if d.Source == nil {
		return 0
	}
	return d.Source.Confidence
}

// Category returns the category of the source classification
func (d *DigestEntity) Category() Category {
	if d.Source == nil {
		return CategoryNotification
	}
	return d.Source.Category
}

// WordBudget bounds how many words of the featured list a renderer may emit
type WordBudget struct {
	Min int
	Max int
}

// DigestTimeline is the bounded digest handed to the renderer.
// It is built once per synthesis call and never mutated afterwards.
type DigestTimeline struct {
	Featured              []*DigestEntity
	NoiseBreakdown        map[Category]int
	OrphanedTimeSensitive []*DigestEntity
	CriticalCount         int
	TimeSensitiveCount    int
	RoutineCount          int
	TotalEmails           int
	Budget                WordBudget
}
