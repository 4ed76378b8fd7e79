// Package leaderboard содержит доменную модель рейтинга учащихся по XP.
package leaderboard

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт чтения рейтинга из основного хранилища.
// Используется как источник для перестроения кеша и как запасной путь,
// когда кеш недоступен.
type Repository interface {
	// GetTop возвращает топ-N учащихся по XP.
	GetTop(ctx context.Context, limit int) ([]*Entry, error)

	// GetPage возвращает страницу рейтинга; page начинается с 1.
	GetPage(ctx context.Context, page, pageSize int) (*Page, error)

	// GetUserRank возвращает позицию учащегося.
	// Возвращает shared.ErrUserNotRanked, если у него нет прогресса.
	GetUserRank(ctx context.Context, userID string) (*Entry, error)

	// GetTotalCount возвращает количество участников рейтинга.
	GetTotalCount(ctx context.Context) (int, error)

	// ListAll возвращает все строки рейтинга для перестроения кеша.
	ListAll(ctx context.Context) ([]*Entry, error)
}

// Cache определяет контракт быстрой проекции рейтинга (Redis sorted set).
// Кеш может отставать от хранилища; плановое перестроение устраняет дрейф.
type Cache interface {
	// ReplaceAll атомарно заменяет содержимое кеша.
	ReplaceAll(ctx context.Context, entries []*Entry) error

	// ApplyScore устанавливает XP учащегося в кеше.
	ApplyScore(ctx context.Context, userID string, experiencePoints int) error

	// GetTop возвращает топ-N из кеша.
	GetTop(ctx context.Context, limit int) ([]*Entry, error)

	// GetUserRank возвращает позицию учащегося из кеша.
	GetUserRank(ctx context.Context, userID string) (*Entry, error)

	// Remove удаляет учащегося из кеша (после сброса прогресса).
	Remove(ctx context.Context, userID string) error

	// Clear очищает кеш.
	Clear(ctx context.Context) error
}
