package command

import (
	"context"
	"fmt"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST LIVES COMMAND
// Applies a signed delta to the user's lives counter, clamped to [0, 10].
// Both losing a life on a failed exercise and regeneration/purchase flows go
// through this single path. Out-of-range deltas saturate, they never fail.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustLivesCommand contains the data to adjust lives.
type AdjustLivesCommand struct {
	// UserID is the ID of the learner whose lives are adjusted.
	UserID string

	// Delta is the signed change to apply: negative to deduct, positive to refill.
	Delta int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AdjustLivesCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// AdjustLivesResult contains the outcome of the adjustment.
type AdjustLivesResult struct {
	// LivesCurrent is the lives counter after clamping.
	LivesCurrent int

	// Progress is the user's progress after the adjustment.
	Progress *progress.UserProgress
}

// AdjustLivesHandler handles AdjustLivesCommand.
type AdjustLivesHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
}

// NewAdjustLivesHandler creates the handler.
func NewAdjustLivesHandler(repo progress.Repository, publisher shared.EventPublisher) *AdjustLivesHandler {
	return &AdjustLivesHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *AdjustLivesHandler) Handle(ctx context.Context, cmd AdjustLivesCommand) (*AdjustLivesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	updated, err := h.repo.MutateProgress(ctx, cmd.UserID, func(p *progress.UserProgress) error {
		p.AdjustLives(cmd.Delta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjust_lives: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewLivesAdjustedEvent(cmd.UserID, cmd.Delta, updated.LivesCurrent))
	}

	return &AdjustLivesResult{
		LivesCurrent: updated.LivesCurrent,
		Progress:     updated,
	}, nil
}
