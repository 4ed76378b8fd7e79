package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// fakeProgressRepo is an in-memory progress.Repository for query tests.
// Only the read paths matter here; writes are filled in directly.
type fakeProgressRepo struct {
	progress    map[string]*progress.UserProgress
	completions []*progress.LessonCompletion
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{progress: make(map[string]*progress.UserProgress)}
}

func (r *fakeProgressRepo) addCompletion(userID, lessonID string, completedAt time.Time, score *int) {
	r.completions = append(r.completions, &progress.LessonCompletion{
		ID:          lessonID + "-completion",
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: completedAt,
		Score:       score,
	})
}

func (r *fakeProgressRepo) GetOrCreateProgress(_ context.Context, userID string) (*progress.UserProgress, error) {
	if p, ok := r.progress[userID]; ok {
		return p, nil
	}
	p := progress.NewUserProgress(userID)
	r.progress[userID] = p
	return p, nil
}

func (r *fakeProgressRepo) MutateProgress(_ context.Context, _ string, _ progress.MutateFunc) (*progress.UserProgress, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeProgressRepo) GetCompletion(_ context.Context, userID, lessonID string) (*progress.LessonCompletion, error) {
	for _, c := range r.completions {
		if c.UserID == userID && c.LessonID == lessonID {
			return c, nil
		}
	}
	return nil, shared.ErrCompletionNotFound
}

func (r *fakeProgressRepo) ListCompletions(_ context.Context, userID string) ([]*progress.LessonCompletion, error) {
	var out []*progress.LessonCompletion
	for _, c := range r.completions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeProgressRepo) CountCompletions(ctx context.Context, userID string) (int, error) {
	list, err := r.ListCompletions(ctx, userID)
	return len(list), err
}

func (r *fakeProgressRepo) ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	list, err := r.ListCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, len(list))
	for _, c := range list {
		times = append(times, c.CompletedAt)
	}
	return times, nil
}

func (r *fakeProgressRepo) RecordCompletion(_ context.Context, _ *progress.LessonCompletion, _ progress.MutateFunc) (*progress.UserProgress, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeProgressRepo) RecordAdjustment(_ context.Context, _ *progress.AdminAdjustment, _ progress.MutateFunc) (*progress.UserProgress, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeProgressRepo) ResetProgress(_ context.Context, _ *progress.AdminAdjustment) (int, error) {
	return 0, errors.New("not implemented")
}

// fakeCatalog is an in-memory content.Lookup.
type fakeCatalog struct {
	totalLessons int
	stats        content.CourseStats
}

func (c *fakeCatalog) LessonExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (c *fakeCatalog) GetLesson(_ context.Context, _ string) (*content.LessonInfo, error) {
	return nil, shared.ErrLessonNotFound
}

func (c *fakeCatalog) TotalLessonCount(_ context.Context) (int, error) {
	return c.totalLessons, nil
}

func (c *fakeCatalog) GetCourseStats(_ context.Context, _ string) (*content.CourseStats, error) {
	stats := c.stats
	return &stats, nil
}

// fakeLeaderboardRepo serves ranked entries from a slice ordered by XP.
type fakeLeaderboardRepo struct {
	entries []*leaderboard.Entry
}

func (r *fakeLeaderboardRepo) ranked() []*leaderboard.Entry {
	out := make([]*leaderboard.Entry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ExperiencePoints > out[j].ExperiencePoints })
	for i, e := range out {
		e.Rank = leaderboard.Rank(i + 1)
	}
	return out
}

func (r *fakeLeaderboardRepo) GetTop(_ context.Context, limit int) ([]*leaderboard.Entry, error) {
	ranked := r.ranked()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r *fakeLeaderboardRepo) GetPage(_ context.Context, page, pageSize int) (*leaderboard.Page, error) {
	ranked := r.ranked()
	start := (page - 1) * pageSize
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return &leaderboard.Page{
		Entries:    ranked[start:end],
		TotalCount: len(ranked),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (r *fakeLeaderboardRepo) GetUserRank(_ context.Context, userID string) (*leaderboard.Entry, error) {
	for _, e := range r.ranked() {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, shared.ErrUserNotRanked
}

func (r *fakeLeaderboardRepo) GetTotalCount(_ context.Context) (int, error) {
	return len(r.entries), nil
}

func (r *fakeLeaderboardRepo) ListAll(_ context.Context) ([]*leaderboard.Entry, error) {
	return r.ranked(), nil
}

// fakeCache is an in-memory leaderboard.Cache with a switchable failure mode.
type fakeCache struct {
	scores map[string]int
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{scores: make(map[string]int)}
}

func (c *fakeCache) ranked() []*leaderboard.Entry {
	out := make([]*leaderboard.Entry, 0, len(c.scores))
	for userID, xp := range c.scores {
		out = append(out, &leaderboard.Entry{UserID: userID, ExperiencePoints: xp})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExperiencePoints != out[j].ExperiencePoints {
			return out[i].ExperiencePoints > out[j].ExperiencePoints
		}
		return out[i].UserID < out[j].UserID
	})
	for i, e := range out {
		e.Rank = leaderboard.Rank(i + 1)
	}
	return out
}

func (c *fakeCache) ReplaceAll(_ context.Context, entries []*leaderboard.Entry) error {
	if c.err != nil {
		return c.err
	}
	c.scores = make(map[string]int, len(entries))
	for _, e := range entries {
		c.scores[e.UserID] = e.ExperiencePoints
	}
	return nil
}

func (c *fakeCache) ApplyScore(_ context.Context, userID string, experiencePoints int) error {
	if c.err != nil {
		return c.err
	}
	c.scores[userID] = experiencePoints
	return nil
}

func (c *fakeCache) GetTop(_ context.Context, limit int) ([]*leaderboard.Entry, error) {
	if c.err != nil {
		return nil, c.err
	}
	ranked := c.ranked()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (c *fakeCache) GetUserRank(_ context.Context, userID string) (*leaderboard.Entry, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, e := range c.ranked() {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, shared.ErrUserNotRanked
}

func (c *fakeCache) Remove(_ context.Context, userID string) error {
	if c.err != nil {
		return c.err
	}
	delete(c.scores, userID)
	return nil
}

func (c *fakeCache) Clear(_ context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.scores = make(map[string]int)
	return nil
}

func intPtr(v int) *int { return &v }
