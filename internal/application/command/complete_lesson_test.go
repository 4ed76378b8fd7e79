package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

func testLesson(id string, xp int) *content.LessonInfo {
	return &content.LessonInfo{
		ID:               id,
		ModuleID:         "module-1",
		CourseID:         "course-es",
		Title:            "Greetings",
		ExperiencePoints: xp,
		Published:        true,
	}
}

func TestCompleteLessonHandler_FirstCompletion(t *testing.T) {
	repo := newFakeRepo()
	publisher := &fakePublisher{}
	handler := NewCompleteLessonHandler(repo, newFakeCatalog(testLesson("lesson-1", 10)), publisher)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		UserID:      "user-1",
		LessonID:    "lesson-1",
		Score:       intPtr(95),
		CompletedAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// 10 XP * 1.2 за счёт score >= 90.
	assert.Equal(t, 12, result.ExperienceGained)
	assert.Equal(t, 12, result.Progress.ExperiencePoints)
	assert.Equal(t, 1, result.Progress.StreakCurrent)
	assert.True(t, result.StreakExtended)
	assert.False(t, result.StreakBroken)
	require.NotNil(t, result.Progress.LastCompletedLessonID)
	assert.Equal(t, "lesson-1", *result.Progress.LastCompletedLessonID)

	events := publisher.published()
	require.Len(t, events, 1)
	completed, ok := events[0].(shared.LessonCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "user-1", completed.UserID)
	assert.Equal(t, 12, completed.ExperienceGained)
	assert.Equal(t, 12, completed.TotalExperience)
}

func TestCompleteLessonHandler_ScoreModifiers(t *testing.T) {
	tests := []struct {
		name     string
		score    *int
		expected int
	}{
		{"excellent applies 1.2", intPtr(92), 12},
		{"good applies 1.1", intPtr(85), 11},
		{"pass applies 1.0", intPtr(70), 10},
		{"weak applies 0.8", intPtr(45), 8},
		{"unassessed applies 1.0", nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			handler := NewCompleteLessonHandler(repo, newFakeCatalog(testLesson("lesson-1", 10)), &fakePublisher{})

			result, err := handler.Handle(context.Background(), CompleteLessonCommand{
				UserID:   "user-1",
				LessonID: "lesson-1",
				Score:    tt.score,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.ExperienceGained)
		})
	}
}

func TestCompleteLessonHandler_DuplicateRejected(t *testing.T) {
	repo := newFakeRepo()
	handler := NewCompleteLessonHandler(repo, newFakeCatalog(testLesson("lesson-1", 10)), &fakePublisher{})
	ctx := context.Background()

	first, err := handler.Handle(ctx, CompleteLessonCommand{
		UserID:   "user-1",
		LessonID: "lesson-1",
		Score:    intPtr(100),
	})
	require.NoError(t, err)

	_, err = handler.Handle(ctx, CompleteLessonCommand{
		UserID:   "user-1",
		LessonID: "lesson-1",
		Score:    intPtr(50),
	})
	require.ErrorIs(t, err, shared.ErrLessonAlreadyCompleted)
	assert.True(t, shared.IsConflict(err))

	// Повтор не изменил ни XP, ни серию.
	p, err := repo.GetOrCreateProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.Progress.ExperiencePoints, p.ExperiencePoints)
	assert.Equal(t, first.Progress.StreakCurrent, p.StreakCurrent)

	count, err := repo.CountCompletions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompleteLessonHandler_ConcurrentDuplicates(t *testing.T) {
	repo := newFakeRepo()
	handler := NewCompleteLessonHandler(repo, newFakeCatalog(testLesson("lesson-1", 10)), &fakePublisher{})
	ctx := context.Background()

	// Одновременные повторы одной пары (user, lesson): ровно один успех,
	// остальные получают конфликт. Точка сериализации - запись завершения.
	const attempts = 16

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Handle(ctx, CompleteLessonCommand{
				UserID:   "user-1",
				LessonID: "lesson-1",
				Score:    intPtr(95),
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, shared.ErrLessonAlreadyCompleted):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, attempts-1, conflicts.Load())

	// XP начислен один раз, строка завершения одна.
	p, err := repo.GetOrCreateProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 12, p.ExperiencePoints)

	count, err := repo.CountCompletions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompleteLessonHandler_UnknownLesson(t *testing.T) {
	handler := NewCompleteLessonHandler(newFakeRepo(), newFakeCatalog(), &fakePublisher{})

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		UserID:   "user-1",
		LessonID: "missing",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteLessonHandler_Validation(t *testing.T) {
	handler := NewCompleteLessonHandler(newFakeRepo(), newFakeCatalog(testLesson("lesson-1", 10)), &fakePublisher{})
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  CompleteLessonCommand
		want error
	}{
		{
			name: "empty user",
			cmd:  CompleteLessonCommand{LessonID: "lesson-1"},
			want: shared.ErrInvalidUserID,
		},
		{
			name: "score above range",
			cmd:  CompleteLessonCommand{UserID: "u", LessonID: "lesson-1", Score: intPtr(101)},
			want: shared.ErrInvalidScore,
		},
		{
			name: "negative score",
			cmd:  CompleteLessonCommand{UserID: "u", LessonID: "lesson-1", Score: intPtr(-1)},
			want: shared.ErrInvalidScore,
		},
		{
			name: "negative time spent",
			cmd:  CompleteLessonCommand{UserID: "u", LessonID: "lesson-1", TimeSpentSeconds: intPtr(-5)},
			want: shared.ErrInvalidTimeSpent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(ctx, tt.cmd)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompleteLessonHandler_StreakAcrossDays(t *testing.T) {
	repo := newFakeRepo()
	publisher := &fakePublisher{}
	catalog := newFakeCatalog(
		testLesson("lesson-1", 10),
		testLesson("lesson-2", 10),
		testLesson("lesson-3", 10),
	)
	handler := NewCompleteLessonHandler(repo, catalog, publisher)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 22, 30, 0, 0, time.UTC)
	day5 := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	r1, err := handler.Handle(ctx, CompleteLessonCommand{UserID: "user-1", LessonID: "lesson-1", CompletedAt: day1})
	require.NoError(t, err)
	assert.Equal(t, 1, r1.Progress.StreakCurrent)

	// Следующий календарный день продолжает серию.
	r2, err := handler.Handle(ctx, CompleteLessonCommand{UserID: "user-1", LessonID: "lesson-2", CompletedAt: day2})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Progress.StreakCurrent)
	assert.True(t, r2.StreakExtended)

	// Разрыв в два дня сбрасывает серию на 1 и поднимает событие.
	r3, err := handler.Handle(ctx, CompleteLessonCommand{UserID: "user-1", LessonID: "lesson-3", CompletedAt: day5})
	require.NoError(t, err)
	assert.Equal(t, 1, r3.Progress.StreakCurrent)
	assert.True(t, r3.StreakBroken)

	var brokenSeen bool
	for _, e := range publisher.published() {
		if _, ok := e.(shared.StreakBrokenEvent); ok {
			brokenSeen = true
		}
	}
	assert.True(t, brokenSeen)
}

func TestCompleteLessonHandler_SameDayKeepsStreak(t *testing.T) {
	repo := newFakeRepo()
	catalog := newFakeCatalog(testLesson("lesson-1", 10), testLesson("lesson-2", 10))
	handler := NewCompleteLessonHandler(repo, catalog, &fakePublisher{})
	ctx := context.Background()

	morning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

	_, err := handler.Handle(ctx, CompleteLessonCommand{UserID: "user-1", LessonID: "lesson-1", CompletedAt: morning})
	require.NoError(t, err)

	r2, err := handler.Handle(ctx, CompleteLessonCommand{UserID: "user-1", LessonID: "lesson-2", CompletedAt: evening})
	require.NoError(t, err)
	assert.Equal(t, 1, r2.Progress.StreakCurrent)
	assert.False(t, r2.StreakExtended)
	assert.Equal(t, 20, r2.Progress.ExperiencePoints)
}
