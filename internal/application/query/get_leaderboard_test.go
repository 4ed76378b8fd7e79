package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/circuitbreaker"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
)

func newLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache) *GetLeaderboardHandler {
	return NewGetLeaderboardHandler(repo, cache, circuitbreaker.RedisBreaker(nil), logger.Default())
}

func seedEntries(xp map[string]int) []*leaderboard.Entry {
	entries := make([]*leaderboard.Entry, 0, len(xp))
	for userID, points := range xp {
		entries = append(entries, &leaderboard.Entry{UserID: userID, ExperiencePoints: points})
	}
	return entries
}

func TestGetLeaderboardHandler_TopFromCache(t *testing.T) {
	cache := newFakeCache()
	require.NoError(t, cache.ReplaceAll(context.Background(), seedEntries(map[string]int{
		"user-a": 300,
		"user-b": 200,
		"user-c": 100,
	})))

	// Хранилище намеренно пустое: ответ должен прийти из кеша.
	handler := newLeaderboardHandler(&fakeLeaderboardRepo{}, cache)

	top, err := handler.HandleTop(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "user-a", top[0].UserID)
	assert.Equal(t, leaderboard.Rank(1), top[0].Rank)
	assert.Equal(t, "user-b", top[1].UserID)
}

func TestGetLeaderboardHandler_FallbackOnCacheFailure(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("connection refused")

	repo := &fakeLeaderboardRepo{entries: seedEntries(map[string]int{
		"user-a": 300,
		"user-b": 200,
	})}
	handler := newLeaderboardHandler(repo, cache)

	top, err := handler.HandleTop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "user-a", top[0].UserID)
}

func TestGetLeaderboardHandler_NilCacheReadsStorage(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: seedEntries(map[string]int{"user-a": 50})}
	handler := newLeaderboardHandler(repo, nil)

	top, err := handler.HandleTop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "user-a", top[0].UserID)
}

func TestGetLeaderboardHandler_EmptyCacheFallsBack(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: seedEntries(map[string]int{"user-a": 50})}
	handler := newLeaderboardHandler(repo, newFakeCache())

	// Пустой кеш не считается ответом: читаем хранилище.
	top, err := handler.HandleTop(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestGetLeaderboardHandler_Page(t *testing.T) {
	repo := &fakeLeaderboardRepo{entries: seedEntries(map[string]int{
		"user-a": 500, "user-b": 400, "user-c": 300, "user-d": 200, "user-e": 100,
	})}
	handler := newLeaderboardHandler(repo, nil)

	page, err := handler.HandlePage(context.Background(), GetLeaderboardQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "user-c", page.Entries[0].UserID)
	assert.Equal(t, leaderboard.Rank(3), page.Entries[0].Rank)
	assert.False(t, page.GeneratedAt.IsZero())
}

func TestGetLeaderboardHandler_PageNormalization(t *testing.T) {
	q := GetLeaderboardQuery{Page: -1, PageSize: 1000}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)

	q = GetLeaderboardQuery{}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PageSize)
}

func TestGetLeaderboardHandler_UserRank(t *testing.T) {
	cache := newFakeCache()
	require.NoError(t, cache.ReplaceAll(context.Background(), seedEntries(map[string]int{
		"user-a": 300,
		"user-b": 200,
	})))
	handler := newLeaderboardHandler(&fakeLeaderboardRepo{}, cache)

	entry, err := handler.HandleUserRank(context.Background(), GetUserRankQuery{UserID: "user-b"})
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Rank(2), entry.Rank)
	assert.Equal(t, 200, entry.ExperiencePoints)
}

func TestGetLeaderboardHandler_UserRankCacheMissChecksStorage(t *testing.T) {
	// Проекция отстала: в кеше учащегося нет, в хранилище есть.
	repo := &fakeLeaderboardRepo{entries: seedEntries(map[string]int{"user-a": 300})}
	handler := newLeaderboardHandler(repo, newFakeCache())

	entry, err := handler.HandleUserRank(context.Background(), GetUserRankQuery{UserID: "user-a"})
	require.NoError(t, err)
	assert.Equal(t, leaderboard.Rank(1), entry.Rank)
}

func TestGetLeaderboardHandler_UserNotRanked(t *testing.T) {
	handler := newLeaderboardHandler(&fakeLeaderboardRepo{}, newFakeCache())

	_, err := handler.HandleUserRank(context.Background(), GetUserRankQuery{UserID: "ghost"})
	require.ErrorIs(t, err, shared.ErrUserNotRanked)
	assert.True(t, shared.IsNotFound(err))
}
