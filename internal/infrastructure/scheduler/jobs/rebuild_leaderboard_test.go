package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/logger"
)

type stubRepo struct {
	entries []*leaderboard.Entry
	err     error
	calls   int
}

func (r *stubRepo) GetTop(_ context.Context, _ int) ([]*leaderboard.Entry, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) GetPage(_ context.Context, _, _ int) (*leaderboard.Page, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) GetUserRank(_ context.Context, _ string) (*leaderboard.Entry, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) GetTotalCount(_ context.Context) (int, error) {
	return len(r.entries), nil
}

func (r *stubRepo) ListAll(_ context.Context) ([]*leaderboard.Entry, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.entries, nil
}

type stubCache struct {
	replaced []*leaderboard.Entry
	err      error
}

func (c *stubCache) ReplaceAll(_ context.Context, entries []*leaderboard.Entry) error {
	if c.err != nil {
		return c.err
	}
	c.replaced = entries
	return nil
}

func (c *stubCache) ApplyScore(_ context.Context, _ string, _ int) error { return nil }
func (c *stubCache) GetTop(_ context.Context, _ int) ([]*leaderboard.Entry, error) {
	return nil, nil
}
func (c *stubCache) GetUserRank(_ context.Context, _ string) (*leaderboard.Entry, error) {
	return nil, shared.ErrUserNotRanked
}
func (c *stubCache) Remove(_ context.Context, _ string) error { return nil }
func (c *stubCache) Clear(_ context.Context) error            { return nil }

func TestRebuildLeaderboardJob(t *testing.T) {
	repo := &stubRepo{entries: []*leaderboard.Entry{
		{UserID: "user-a", ExperiencePoints: 300, Rank: 1},
		{UserID: "user-b", ExperiencePoints: 100, Rank: 2},
	}}
	cache := &stubCache{}
	job := NewRebuildLeaderboardJob(repo, cache, nil, logger.Default())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, cache.replaced, 2)
	assert.Equal(t, "user-a", cache.replaced[0].UserID)
}

func TestRebuildLeaderboardJob_StorageFailure(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	job := NewRebuildLeaderboardJob(repo, &stubCache{}, nil, logger.Default())

	err := job.Run(context.Background())
	require.Error(t, err)
	// Повторы исчерпаны до возврата ошибки.
	assert.Greater(t, repo.calls, 1)
}

func TestRebuildLeaderboardJob_CacheFailure(t *testing.T) {
	repo := &stubRepo{entries: []*leaderboard.Entry{{UserID: "u", ExperiencePoints: 1, Rank: 1}}}
	cache := &stubCache{err: errors.New("redis down")}
	job := NewRebuildLeaderboardJob(repo, cache, nil, logger.Default())

	require.Error(t, job.Run(context.Background()))
}
