// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The central write path of the progress engine: records a lesson completion,
// awards experience with the score modifier, advances the daily streak and
// persists everything atomically. A (user, lesson) pair is completed at most
// once; repeat calls are rejected without touching any counters.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data to record a lesson completion.
type CompleteLessonCommand struct {
	// UserID is the ID of the learner completing the lesson.
	UserID string

	// LessonID is the ID of the completed lesson.
	LessonID string

	// Score is the optional assessment score, 0-100. Nil for unassessed lessons.
	Score *int

	// TimeSpentSeconds is the optional time spent on the lesson.
	TimeSpentSeconds *int

	// CompletedAt is when the lesson was completed. The HTTP boundary always
	// stamps server time here; zero also falls back to server time.
	CompletedAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.LessonID == "" {
		return shared.NewDomainError("progress", "CompleteLesson", shared.ErrValidation, "lesson_id is required")
	}
	if c.Score != nil && (*c.Score < 0 || *c.Score > progress.MaxScore) {
		return shared.ErrInvalidScore
	}
	if c.TimeSpentSeconds != nil && *c.TimeSpentSeconds < 0 {
		return shared.ErrInvalidTimeSpent
	}
	return nil
}

// CompleteLessonResult contains the outcome of the completion.
type CompleteLessonResult struct {
	// Progress is the user's progress after the completion was applied.
	Progress *progress.UserProgress

	// Completion is the persisted completion record.
	Completion *progress.LessonCompletion

	// ExperienceGained is the XP awarded for this completion, modifier applied.
	ExperienceGained int

	// StreakExtended is true when the streak grew relative to its previous value.
	StreakExtended bool

	// StreakBroken is true when a previously built streak was reset by a gap.
	StreakBroken bool
}

// CompleteLessonHandler handles CompleteLessonCommand.
type CompleteLessonHandler struct {
	repo      progress.Repository
	lessons   content.Lookup
	publisher shared.EventPublisher
}

// NewCompleteLessonHandler creates the handler.
func NewCompleteLessonHandler(
	repo progress.Repository,
	lessons content.Lookup,
	publisher shared.EventPublisher,
) *CompleteLessonHandler {
	return &CompleteLessonHandler{
		repo:      repo,
		lessons:   lessons,
		publisher: publisher,
	}
}

// Handle executes the command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	completedAt := cmd.CompletedAt
	if completedAt.IsZero() {
		completedAt = timeutil.Now()
	}

	lesson, err := h.lessons.GetLesson(ctx, cmd.LessonID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: lookup lesson %s: %w", cmd.LessonID, err)
	}

	// Friendly pre-check; the unique constraint inside RecordCompletion
	// remains the authoritative guard under concurrency.
	if _, err := h.repo.GetCompletion(ctx, cmd.UserID, cmd.LessonID); err == nil {
		return nil, shared.ErrLessonAlreadyCompleted
	} else if !errors.Is(err, shared.ErrCompletionNotFound) {
		return nil, fmt.Errorf("complete_lesson: idempotency check: %w", err)
	}

	completion := &progress.LessonCompletion{
		ID:               uuid.NewString(),
		UserID:           cmd.UserID,
		LessonID:         cmd.LessonID,
		CompletedAt:      completedAt,
		Score:            cmd.Score,
		TimeSpentSeconds: cmd.TimeSpentSeconds,
	}
	if err := completion.Validate(); err != nil {
		return nil, err
	}

	var (
		gained   int
		extended bool
		broken   bool
	)
	updated, err := h.repo.RecordCompletion(ctx, completion, func(p *progress.UserProgress) error {
		gained = progress.ExperienceForCompletion(lesson.ExperiencePoints, cmd.Score)

		prevStreak := p.StreakCurrent
		newStreak, wasBroken := progress.NextStreak(p.StreakCurrent, p.LastActivityDate, completedAt)
		extended = newStreak > prevStreak
		broken = wasBroken

		p.RecordCompletion(cmd.LessonID, gained, newStreak, completedAt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publishEvents(cmd, updated, gained, broken)

	return &CompleteLessonResult{
		Progress:         updated,
		Completion:       completion,
		ExperienceGained: gained,
		StreakExtended:   extended,
		StreakBroken:     broken,
	}, nil
}

// publishEvents publishes domain events after a successful commit.
// Event delivery is best-effort: projections recover via the scheduled rebuild.
func (h *CompleteLessonHandler) publishEvents(
	cmd CompleteLessonCommand,
	p *progress.UserProgress,
	gained int,
	broken bool,
) {
	if h.publisher == nil {
		return
	}

	event := shared.NewLessonCompletedEvent(
		cmd.UserID,
		cmd.LessonID,
		gained,
		p.ExperiencePoints,
		p.StreakCurrent,
		cmd.Score,
	)
	_ = h.publisher.Publish(event)

	if broken {
		_ = h.publisher.Publish(shared.NewStreakBrokenEvent(cmd.UserID, p.StreakCurrent))
	}
}
