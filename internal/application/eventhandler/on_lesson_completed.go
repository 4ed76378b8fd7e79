// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
	"github.com/lingua-hub/lingua-progress-hub/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// LEADERBOARD PROJECTION HANDLER
// Держит Redis-проекцию рейтинга в актуальном состоянии, реагируя на
// события движка прогресса:
//
// 1. lesson_completed / bonus_granted — новый суммарный XP попадает в кеш
// 2. progress_reset — учащийся удаляется из кеша
//
// Проекция вторична: любое расхождение устраняет плановое перестроение,
// поэтому ошибки кеша здесь логируются, но не всплывают к вызывающему.
// ═══════════════════════════════════════════════════════════════════════════

// projectionTimeout ограничивает время одной записи в кеш.
const projectionTimeout = 5 * time.Second

// LeaderboardProjectionHandler обновляет кеш рейтинга по событиям.
type LeaderboardProjectionHandler struct {
	cache   leaderboard.Cache
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewLeaderboardProjectionHandler создаёт обработчик.
func NewLeaderboardProjectionHandler(cache leaderboard.Cache, log *logger.Logger) *LeaderboardProjectionHandler {
	return &LeaderboardProjectionHandler{
		cache:   cache,
		retrier: retry.CacheRetrier(),
		log:     log.With(logger.Component("leaderboard_projection")),
	}
}

// Register подписывает обработчик на события движка прогресса.
func (h *LeaderboardProjectionHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventLessonCompleted, h.handleEvent); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventLessonCompleted, err)
	}
	if err := bus.Subscribe(shared.EventBonusGranted, h.handleEvent); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventBonusGranted, err)
	}
	if err := bus.Subscribe(shared.EventProgressReset, h.handleEvent); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventProgressReset, err)
	}
	return nil
}

// handleEvent маршрутизирует событие к нужному действию над кешем.
func (h *LeaderboardProjectionHandler) handleEvent(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), projectionTimeout)
	defer cancel()

	switch e := event.(type) {
	case shared.LessonCompletedEvent:
		h.applyScore(ctx, e.UserID, e.TotalExperience)

	case shared.BonusGrantedEvent:
		h.applyScore(ctx, e.UserID, e.TotalExperience)

	case shared.ProgressResetEvent:
		h.remove(ctx, e.UserID)

	default:
		h.log.Warn("unexpected event type in leaderboard projection",
			logger.String("event_type", string(event.EventType())))
	}

	// Кеш не источник истины: событие считается обработанным всегда.
	return nil
}

// applyScore записывает новый XP учащегося в кеш с повторами.
func (h *LeaderboardProjectionHandler) applyScore(ctx context.Context, userID string, totalXP int) {
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.cache.ApplyScore(ctx, userID, totalXP)
	})
	if err != nil {
		h.log.Warn("failed to project score to leaderboard cache",
			logger.UserID(userID),
			logger.XPAmount(totalXP),
			logger.Err(err))
	}
}

// remove удаляет учащегося из кеша с повторами.
func (h *LeaderboardProjectionHandler) remove(ctx context.Context, userID string) {
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.cache.Remove(ctx, userID)
	})
	if err != nil {
		h.log.Warn("failed to remove user from leaderboard cache",
			logger.UserID(userID),
			logger.Err(err))
	}
}
