package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE IMPLEMENTATION
// A single sorted set keyed by user with XP as the score. The sorted set is
// the whole projection: ranks come from ZREVRANK, pages from ZREVRANGE.
// ══════════════════════════════════════════════════════════════════════════════

const leaderboardKey = PrefixLeaderboard + "xp"

// LeaderboardCache implements leaderboard.Cache on a Redis sorted set.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ReplaceAll atomically swaps the projection contents. Used by the scheduled
// rebuild: the new set is built under a temporary key and renamed over the
// live one, so readers never observe a partial state.
func (l *LeaderboardCache) ReplaceAll(ctx context.Context, entries []*leaderboard.Entry) error {
	tempKey := leaderboardKey + ":rebuild"

	client := l.cache.Client()
	pipe := client.TxPipeline()
	pipe.Del(ctx, tempKey)

	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{
				Score:  float64(e.ExperiencePoints),
				Member: e.UserID,
			})
		}
		pipe.ZAdd(ctx, tempKey, members...)
		pipe.Rename(ctx, tempKey, leaderboardKey)
	} else {
		pipe.Del(ctx, leaderboardKey)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard cache: replace all: %w", err)
	}
	return nil
}

// ApplyScore sets the user's XP in the projection.
func (l *LeaderboardCache) ApplyScore(ctx context.Context, userID string, experiencePoints int) error {
	err := l.cache.Client().ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(experiencePoints),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("leaderboard cache: apply score: %w", err)
	}
	return nil
}

// GetTop returns the top-N entries.
func (l *LeaderboardCache) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if limit < 1 {
		return nil, nil
	}

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard cache: get top: %w", err)
	}

	entries := make([]*leaderboard.Entry, 0, len(members))
	for i, m := range members {
		userID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, &leaderboard.Entry{
			UserID:           userID,
			ExperiencePoints: int(m.Score),
			Rank:             leaderboard.Rank(i + 1),
		})
	}
	return entries, nil
}

// GetUserRank returns the user's position.
func (l *LeaderboardCache) GetUserRank(ctx context.Context, userID string) (*leaderboard.Entry, error) {
	client := l.cache.Client()

	rank, err := client.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrUserNotRanked
		}
		return nil, fmt.Errorf("leaderboard cache: get rank: %w", err)
	}

	score, err := client.ZScore(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrUserNotRanked
		}
		return nil, fmt.Errorf("leaderboard cache: get score: %w", err)
	}

	return &leaderboard.Entry{
		UserID:           userID,
		ExperiencePoints: int(score),
		Rank:             leaderboard.Rank(rank + 1),
	}, nil
}

// Remove deletes the user from the projection.
func (l *LeaderboardCache) Remove(ctx context.Context, userID string) error {
	if err := l.cache.Client().ZRem(ctx, leaderboardKey, userID).Err(); err != nil {
		return fmt.Errorf("leaderboard cache: remove: %w", err)
	}
	return nil
}

// Clear wipes the projection.
func (l *LeaderboardCache) Clear(ctx context.Context) error {
	if err := l.cache.Client().Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("leaderboard cache: clear: %w", err)
	}
	return nil
}

// Size returns the number of cached entries, used by health reporting.
func (l *LeaderboardCache) Size(ctx context.Context) (int64, error) {
	n, err := l.cache.Client().ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0, fmt.Errorf("leaderboard cache: size: %w", err)
	}
	return n, nil
}
