// Package jobs contains the scheduled jobs of the progress engine.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
	"github.com/lingua-hub/lingua-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// Перечитывает рейтинг из Postgres и целиком заменяет Redis-проекцию.
// Это страховка от дрейфа: пропущенные события, рестарты Redis и ручные
// правки в базе устраняются при каждом прогоне.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRebuildInterval - периодичность перестроения по умолчанию.
const DefaultRebuildInterval = 5 * time.Minute

// RebuildLeaderboardJob перестраивает кеш рейтинга из хранилища.
type RebuildLeaderboardJob struct {
	repo      leaderboard.Repository
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	log       *logger.Logger
}

// NewRebuildLeaderboardJob создаёт задачу.
func NewRebuildLeaderboardJob(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RebuildLeaderboardJob {
	return &RebuildLeaderboardJob{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		retrier:   retry.DatabaseRetrier(),
		log:       log.With(logger.Component("rebuild_leaderboard")),
	}
}

// Name возвращает имя задачи.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description возвращает описание задачи.
func (j *RebuildLeaderboardJob) Description() string {
	return "rebuilds the Redis leaderboard projection from Postgres"
}

// Run выполняет перестроение.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	started := time.Now()

	var entries []*leaderboard.Entry
	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var listErr error
		entries, listErr = j.repo.ListAll(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: list entries: %w", err)
	}

	if err := j.cache.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("rebuild leaderboard: replace cache: %w", err)
	}

	j.log.Info("leaderboard projection rebuilt",
		logger.Int("entries", len(entries)),
		logger.Duration("took", time.Since(started)))

	if j.publisher != nil {
		_ = j.publisher.Publish(newRebuiltEvent(len(entries)))
	}

	return nil
}

// rebuiltEvent сигнализирует об окончании перестроения.
type rebuiltEvent struct {
	shared.BaseEvent
	Entries int
}

func newRebuiltEvent(entries int) rebuiltEvent {
	return rebuiltEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLeaderboardRebuilt, "leaderboard"),
		Entries:   entries,
	}
}

// Payload реализует shared.Event.
func (e rebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"entries": e.Entries}
}
