// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUMMARY QUERY
// Собирает сводку прогресса учащегося для экрана профиля и аналитики:
// XP, жизни, серии, процент прохождения, средний балл.
//
// Запрос только читает: ни одно поле прогресса не изменяется.
// ══════════════════════════════════════════════════════════════════════════════

// GetSummaryQuery содержит параметры запроса сводки.
type GetSummaryQuery struct {
	// UserID - идентификатор учащегося.
	UserID string
}

// Validate проверяет запрос.
func (q GetSummaryQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrInvalidUserID
	}
	return nil
}

// SummaryDTO - сводка прогресса учащегося.
type SummaryDTO struct {
	// UserID - идентификатор учащегося.
	UserID string `json:"user_id"`

	// ExperiencePoints - накопленный XP.
	ExperiencePoints int `json:"experience_points"`

	// LivesCurrent - текущее количество жизней.
	LivesCurrent int `json:"lives_current"`

	// StreakCurrent - текущая серия дней.
	StreakCurrent int `json:"streak_current"`

	// LongestStreak - самая долгая серия за всё время,
	// восстановленная из дат завершений.
	LongestStreak int `json:"longest_streak"`

	// TotalLessonsCompleted - количество завершённых уроков.
	TotalLessonsCompleted int `json:"lessons_completed"`

	// CompletionPercentage - доля пройденных уроков от опубликованных,
	// в процентах с одним знаком после запятой. 0, если каталог пуст.
	CompletionPercentage float64 `json:"completion_percentage"`

	// AverageScore - средний балл по оценённым урокам, два знака после
	// запятой. 0, если ни один урок не имел оценки.
	AverageScore float64 `json:"average_score"`

	// LastActivityDate - момент последнего завершения.
	LastActivityDate *time.Time `json:"last_activity_date"`

	// CoursesStarted - количество начатых курсов.
	CoursesStarted int `json:"courses_started"`

	// CoursesCompleted - количество полностью пройденных курсов.
	CoursesCompleted int `json:"courses_completed"`
}

// GetSummaryHandler обрабатывает GetSummaryQuery.
type GetSummaryHandler struct {
	repo    progress.Repository
	catalog content.Lookup
}

// NewGetSummaryHandler создаёт обработчик.
func NewGetSummaryHandler(repo progress.Repository, catalog content.Lookup) *GetSummaryHandler {
	return &GetSummaryHandler{repo: repo, catalog: catalog}
}

// Handle выполняет запрос.
func (h *GetSummaryHandler) Handle(ctx context.Context, q GetSummaryQuery) (*SummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	p, err := h.repo.GetOrCreateProgress(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_summary: load progress: %w", err)
	}

	completions, err := h.repo.ListCompletions(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_summary: list completions: %w", err)
	}

	totalLessons, err := h.catalog.TotalLessonCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_summary: lesson count: %w", err)
	}

	courseStats, err := h.catalog.GetCourseStats(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_summary: course stats: %w", err)
	}

	dto := &SummaryDTO{
		UserID:                q.UserID,
		ExperiencePoints:      p.ExperiencePoints,
		LivesCurrent:          p.LivesCurrent,
		StreakCurrent:         p.StreakCurrent,
		TotalLessonsCompleted: len(completions),
		LastActivityDate:      p.LastActivityDate,
		CoursesStarted:        courseStats.CoursesStarted,
		CoursesCompleted:      courseStats.CoursesCompleted,
	}

	// Процент прохождения: защита от пустого каталога.
	if totalLessons > 0 {
		pct := float64(len(completions)) / float64(totalLessons) * 100
		dto.CompletionPercentage = math.Round(pct*10) / 10
	}

	// Средний балл только по урокам с оценкой.
	var (
		scoreSum   int
		scoreCount int
	)
	times := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		times = append(times, c.CompletedAt)
		if c.Score != nil {
			scoreSum += *c.Score
			scoreCount++
		}
	}
	if scoreCount > 0 {
		dto.AverageScore = math.Round(float64(scoreSum)/float64(scoreCount)*100) / 100
	}

	dto.LongestStreak = progress.LongestStreak(times)

	return dto, nil
}
