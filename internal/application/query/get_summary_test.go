package query

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
}

func TestGetSummaryHandler(t *testing.T) {
	repo := newFakeProgressRepo()
	p, err := repo.GetOrCreateProgress(context.Background(), "user-1")
	require.NoError(t, err)
	p.ExperiencePoints = 120
	p.LivesCurrent = 4
	p.StreakCurrent = 3
	last := day(12)
	p.LastActivityDate = &last

	// Три завершения подряд (10, 11, 12 марта), два с оценкой.
	repo.addCompletion("user-1", "lesson-1", day(10), intPtr(90))
	repo.addCompletion("user-1", "lesson-2", day(11), nil)
	repo.addCompletion("user-1", "lesson-3", day(12), intPtr(75))

	catalog := &fakeCatalog{
		totalLessons: 40,
		stats:        content.CourseStats{CoursesStarted: 2, CoursesCompleted: 1},
	}
	handler := NewGetSummaryHandler(repo, catalog)

	dto, err := handler.Handle(context.Background(), GetSummaryQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", dto.UserID)
	assert.Equal(t, 120, dto.ExperiencePoints)
	assert.Equal(t, 4, dto.LivesCurrent)
	assert.Equal(t, 3, dto.StreakCurrent)
	assert.Equal(t, 3, dto.TotalLessonsCompleted)
	// 3 из 40 = 7.5%.
	assert.Equal(t, 7.5, dto.CompletionPercentage)
	// Средний балл только по оценённым: (90+75)/2.
	assert.Equal(t, 82.5, dto.AverageScore)
	assert.Equal(t, 3, dto.LongestStreak)
	require.NotNil(t, dto.LastActivityDate)
	assert.Equal(t, last, *dto.LastActivityDate)
	assert.Equal(t, 2, dto.CoursesStarted)
	assert.Equal(t, 1, dto.CoursesCompleted)
}

func TestGetSummaryHandler_NewUser(t *testing.T) {
	handler := NewGetSummaryHandler(newFakeProgressRepo(), &fakeCatalog{totalLessons: 40})

	dto, err := handler.Handle(context.Background(), GetSummaryQuery{UserID: "fresh"})
	require.NoError(t, err)

	assert.Equal(t, 0, dto.ExperiencePoints)
	assert.Equal(t, 5, dto.LivesCurrent)
	assert.Equal(t, 0, dto.TotalLessonsCompleted)
	assert.Equal(t, 0.0, dto.CompletionPercentage)
	assert.Equal(t, 0.0, dto.AverageScore)
	assert.Nil(t, dto.LastActivityDate)
	assert.Equal(t, 0, dto.LongestStreak)
}

func TestGetSummaryHandler_UnscoredAverageIsZero(t *testing.T) {
	repo := newFakeProgressRepo()
	// Ни одно завершение не оценено: средний балл равен нулю, не null.
	repo.addCompletion("user-1", "lesson-1", day(10), nil)
	repo.addCompletion("user-1", "lesson-2", day(11), nil)

	handler := NewGetSummaryHandler(repo, &fakeCatalog{totalLessons: 20})

	dto, err := handler.Handle(context.Background(), GetSummaryQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dto.AverageScore)
	assert.Equal(t, 2, dto.TotalLessonsCompleted)

	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"average_score":0`)
	assert.NotContains(t, string(raw), `"average_score":null`)
}

func TestGetSummaryHandler_EmptyCatalog(t *testing.T) {
	repo := newFakeProgressRepo()
	repo.addCompletion("user-1", "lesson-1", day(10), nil)

	// Каталог пуст: деление на ноль не должно происходить.
	handler := NewGetSummaryHandler(repo, &fakeCatalog{totalLessons: 0})

	dto, err := handler.Handle(context.Background(), GetSummaryQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, dto.CompletionPercentage)
	assert.Equal(t, 1, dto.TotalLessonsCompleted)
}

func TestGetSummaryHandler_LongestStreakFromHistory(t *testing.T) {
	repo := newFakeProgressRepo()
	// Серия из четырёх дней, разрыв, затем два дня.
	for _, d := range []int{1, 2, 3, 4, 10, 11} {
		repo.addCompletion("user-1", "lesson-"+string(rune('a'+d)), day(d), nil)
	}
	handler := NewGetSummaryHandler(repo, &fakeCatalog{totalLessons: 100})

	dto, err := handler.Handle(context.Background(), GetSummaryQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, dto.LongestStreak)
}

func TestGetSummaryHandler_Validation(t *testing.T) {
	handler := NewGetSummaryHandler(newFakeProgressRepo(), &fakeCatalog{})

	_, err := handler.Handle(context.Background(), GetSummaryQuery{})
	require.ErrorIs(t, err, shared.ErrInvalidUserID)
}
