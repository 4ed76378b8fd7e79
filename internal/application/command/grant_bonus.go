package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRANT BONUS COMMAND
// Administrative XP grant outside the lesson flow: promotions, compensation
// for incidents, manual corrections. The bonus bypasses score modifiers and
// never touches streaks, lives or completion records. Every grant leaves an
// audit row in the same transaction as the XP change.
// ══════════════════════════════════════════════════════════════════════════════

// GrantBonusCommand contains the data to grant bonus XP.
type GrantBonusCommand struct {
	// ActorID is the ID of the administrator performing the grant.
	ActorID string

	// TargetUserID is the ID of the learner receiving the bonus.
	TargetUserID string

	// BonusPoints is the XP to add. Must be non-negative; zero is a no-op
	// that still leaves an audit trail.
	BonusPoints int

	// Reason is the free-form justification, recorded for audit.
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c GrantBonusCommand) Validate() error {
	if c.TargetUserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.BonusPoints < 0 {
		return shared.ErrNegativeBonus
	}
	if c.Reason == "" {
		return shared.ErrEmptyReason
	}
	return nil
}

// GrantBonusResult contains the outcome of the grant.
type GrantBonusResult struct {
	// Progress is the user's progress after the bonus was applied.
	Progress *progress.UserProgress

	// Adjustment is the persisted audit record.
	Adjustment *progress.AdminAdjustment
}

// GrantBonusHandler handles GrantBonusCommand.
type GrantBonusHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
}

// NewGrantBonusHandler creates the handler.
func NewGrantBonusHandler(repo progress.Repository, publisher shared.EventPublisher) *GrantBonusHandler {
	return &GrantBonusHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *GrantBonusHandler) Handle(ctx context.Context, cmd GrantBonusCommand) (*GrantBonusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	adj := &progress.AdminAdjustment{
		ID:           uuid.NewString(),
		TargetUserID: cmd.TargetUserID,
		ActorID:      cmd.ActorID,
		Kind:         progress.AdjustmentBonus,
		PointsDelta:  cmd.BonusPoints,
		Reason:       cmd.Reason,
		CreatedAt:    timeutil.Now(),
	}

	updated, err := h.repo.RecordAdjustment(ctx, adj, func(p *progress.UserProgress) error {
		return p.AddExperience(cmd.BonusPoints)
	})
	if err != nil {
		return nil, fmt.Errorf("grant_bonus: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBonusGrantedEvent(
			cmd.TargetUserID, cmd.BonusPoints, updated.ExperiencePoints, cmd.Reason,
		))
	}

	return &GrantBonusResult{Progress: updated, Adjustment: adj}, nil
}
