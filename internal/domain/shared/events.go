// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventXPGained        EventType = "progress.xp_gained"
	EventStreakAdvanced  EventType = "progress.streak_advanced"
	EventStreakBroken    EventType = "progress.streak_broken"
	EventLivesAdjusted   EventType = "progress.lives_adjusted"

	// Admin events
	EventBonusGranted  EventType = "admin.bonus_granted"
	EventProgressReset EventType = "admin.progress_reset"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a learner completes a lesson.
type LessonCompletedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	LessonID         string `json:"lesson_id"`
	ExperienceGained int    `json:"experience_gained"`
	TotalExperience  int    `json:"total_experience"`
	StreakCurrent    int    `json:"streak_current"`
	Score            *int   `json:"score,omitempty"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"user_id":           e.UserID,
		"lesson_id":         e.LessonID,
		"experience_gained": e.ExperienceGained,
		"total_experience":  e.TotalExperience,
		"streak_current":    e.StreakCurrent,
	}
	if e.Score != nil {
		p["score"] = *e.Score
	}
	return p
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, gained, total, streak int, score *int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:        NewBaseEvent(EventLessonCompleted, userID),
		UserID:           userID,
		LessonID:         lessonID,
		ExperienceGained: gained,
		TotalExperience:  total,
		StreakCurrent:    streak,
		Score:            score,
	}
}

// StreakBrokenEvent is emitted when a completion arrives after a gap of
// more than one calendar day and the streak restarts at 1.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		PreviousStreak: previousStreak,
	}
}

// LivesAdjustedEvent is emitted when the lives balance changes.
type LivesAdjustedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	Delta        int    `json:"delta"`
	LivesCurrent int    `json:"lives_current"`
}

// Payload implements Event interface.
func (e LivesAdjustedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"delta":         e.Delta,
		"lives_current": e.LivesCurrent,
	}
}

// NewLivesAdjustedEvent creates a new LivesAdjustedEvent.
func NewLivesAdjustedEvent(userID string, delta, livesCurrent int) LivesAdjustedEvent {
	return LivesAdjustedEvent{
		BaseEvent:    NewBaseEvent(EventLivesAdjusted, userID),
		UserID:       userID,
		Delta:        delta,
		LivesCurrent: livesCurrent,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Admin Events
// ═══════════════════════════════════════════════════════════════════════════

// BonusGrantedEvent is emitted when an administrator grants bonus XP.
type BonusGrantedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	BonusPoints     int    `json:"bonus_points"`
	TotalExperience int    `json:"total_experience"`
	Reason          string `json:"reason"`
}

// Payload implements Event interface.
func (e BonusGrantedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"bonus_points":     e.BonusPoints,
		"total_experience": e.TotalExperience,
		"reason":           e.Reason,
	}
}

// NewBonusGrantedEvent creates a new BonusGrantedEvent.
func NewBonusGrantedEvent(userID string, bonusPoints, total int, reason string) BonusGrantedEvent {
	return BonusGrantedEvent{
		BaseEvent:       NewBaseEvent(EventBonusGranted, userID),
		UserID:          userID,
		BonusPoints:     bonusPoints,
		TotalExperience: total,
		Reason:          reason,
	}
}

// ProgressResetEvent is emitted when an administrator wipes a learner's progress.
type ProgressResetEvent struct {
	BaseEvent
	UserID             string `json:"user_id"`
	CompletionsDeleted int    `json:"completions_deleted"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":             e.UserID,
		"completions_deleted": e.CompletionsDeleted,
	}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(userID string, completionsDeleted int) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent:          NewBaseEvent(EventProgressReset, userID),
		UserID:             userID,
		CompletionsDeleted: completionsDeleted,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
