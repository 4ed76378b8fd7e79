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
// RESET PROGRESS COMMAND
// Administrative full reset: deletes every completion record and returns the
// progress row to defaults (0 XP, 5 lives, streak 0). Irreversible, so the
// reason is mandatory and the whole operation is a single transaction with
// its audit row.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand contains the data to reset a user's progress.
type ResetProgressCommand struct {
	// ActorID is the ID of the administrator performing the reset.
	ActorID string

	// TargetUserID is the ID of the learner being reset.
	TargetUserID string

	// Reason is the free-form justification, recorded for audit.
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if c.TargetUserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.Reason == "" {
		return shared.ErrEmptyReason
	}
	return nil
}

// ResetProgressResult contains the outcome of the reset.
type ResetProgressResult struct {
	// CompletionsDeleted is the number of completion records removed.
	CompletionsDeleted int

	// Adjustment is the persisted audit record.
	Adjustment *progress.AdminAdjustment
}

// ResetProgressHandler handles ResetProgressCommand.
type ResetProgressHandler struct {
	repo      progress.Repository
	publisher shared.EventPublisher
}

// NewResetProgressHandler creates the handler.
func NewResetProgressHandler(repo progress.Repository, publisher shared.EventPublisher) *ResetProgressHandler {
	return &ResetProgressHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	adj := &progress.AdminAdjustment{
		ID:           uuid.NewString(),
		TargetUserID: cmd.TargetUserID,
		ActorID:      cmd.ActorID,
		Kind:         progress.AdjustmentReset,
		PointsDelta:  0,
		Reason:       cmd.Reason,
		CreatedAt:    timeutil.Now(),
	}

	deleted, err := h.repo.ResetProgress(ctx, adj)
	if err != nil {
		return nil, fmt.Errorf("reset_progress: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewProgressResetEvent(cmd.TargetUserID, deleted))
	}

	return &ResetProgressResult{
		CompletionsDeleted: deleted,
		Adjustment:         adj,
	}, nil
}
