package query

import (
	"context"
	"fmt"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/circuitbreaker"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Читает рейтинг по XP. Быстрый путь - Redis sorted set; при недоступности
// кеша circuit breaker переводит чтение на Postgres. Источник истины всегда
// Postgres, кеш - только ускоряющая проекция.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPageSize - размер страницы рейтинга по умолчанию.
const DefaultPageSize = 20

// MaxPageSize - максимальный размер страницы рейтинга.
const MaxPageSize = 100

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Page - номер страницы, начиная с 1.
	Page int

	// PageSize - размер страницы (по умолчанию DefaultPageSize).
	PageSize int
}

// Normalize приводит параметры к допустимым границам.
func (q *GetLeaderboardQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
}

// GetUserRankQuery содержит параметры запроса позиции учащегося.
type GetUserRankQuery struct {
	// UserID - идентификатор учащегося.
	UserID string
}

// Validate проверяет запрос.
func (q GetUserRankQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	repo    leaderboard.Repository
	cache   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewGetLeaderboardHandler создаёт обработчик. Кеш может быть nil -
// тогда все чтения идут напрямую в хранилище.
func NewGetLeaderboardHandler(
	repo leaderboard.Repository,
	cache leaderboard.Cache,
	breaker *circuitbreaker.CircuitBreaker,
	log *logger.Logger,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
		log:     log.With(logger.Component("leaderboard_query")),
	}
}

// HandleTop возвращает топ-N рейтинга.
func (h *GetLeaderboardHandler) HandleTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if entries, ok := h.topFromCache(ctx, limit); ok {
		return entries, nil
	}

	entries, err := h.repo.GetTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: top from storage: %w", err)
	}
	return entries, nil
}

// HandlePage возвращает страницу рейтинга. Пагинация по произвольному
// смещению всегда читается из хранилища: кеш держит только верхушку.
func (h *GetLeaderboardHandler) HandlePage(ctx context.Context, q GetLeaderboardQuery) (*leaderboard.Page, error) {
	q.Normalize()

	page, err := h.repo.GetPage(ctx, q.Page, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: page from storage: %w", err)
	}
	page.GeneratedAt = timeutil.Now()
	return page, nil
}

// HandleUserRank возвращает позицию учащегося.
func (h *GetLeaderboardHandler) HandleUserRank(ctx context.Context, q GetUserRankQuery) (*leaderboard.Entry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		var entry *leaderboard.Entry
		err := h.breaker.Execute(ctx, func(ctx context.Context) error {
			var cacheErr error
			entry, cacheErr = h.cache.GetUserRank(ctx, q.UserID)
			return cacheErr
		})
		if err == nil {
			return entry, nil
		}
		// Отсутствие в кеше - не сбой: проекция могла отстать,
		// хранилище отвечает авторитетно.
		if !shared.IsNotFound(err) {
			h.log.Warn("leaderboard cache unavailable, falling back to storage",
				logger.Err(err))
		}
	}

	entry, err := h.repo.GetUserRank(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// topFromCache пытается прочитать топ из кеша через circuit breaker.
func (h *GetLeaderboardHandler) topFromCache(ctx context.Context, limit int) ([]*leaderboard.Entry, bool) {
	if h.cache == nil {
		return nil, false
	}

	var entries []*leaderboard.Entry
	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var cacheErr error
		entries, cacheErr = h.cache.GetTop(ctx, limit)
		return cacheErr
	})
	if err != nil {
		h.log.Warn("leaderboard cache unavailable, falling back to storage",
			logger.Err(err))
		return nil, false
	}
	if len(entries) == 0 {
		// Пустой кеш неотличим от ещё не построенного.
		return nil, false
	}
	return entries, true
}
