// Package content определяет контракт чтения иерархии контента
// (Курс → Уровень → Секция → Модуль → Урок → Упражнение).
// Иерархией владеет подсистема редактора; движок прогресса только
// читает её и никогда не изменяет.
package content

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// READ MODELS
// ══════════════════════════════════════════════════════════════════════════════

// LessonInfo - минимальное представление урока для движка прогресса.
type LessonInfo struct {
	// ID - идентификатор урока.
	ID string

	// ModuleID - модуль, которому принадлежит урок.
	ModuleID string

	// CourseID - курс на вершине иерархии.
	CourseID string

	// Title - название урока (для логирования и ответов API).
	Title string

	// ExperiencePoints - базовый XP за завершение этого урока.
	ExperiencePoints int

	// Published - доступен ли урок учащимся.
	Published bool
}

// CourseStats - агрегаты по курсам для сводки прогресса.
// Вычисляются подсистемой контента и передаются в сводку как есть.
type CourseStats struct {
	// CoursesStarted - количество курсов хотя бы с одним завершением.
	CoursesStarted int

	// CoursesCompleted - количество курсов, где завершены все уроки.
	CoursesCompleted int
}

// CourseInfo - сводное представление курса.
type CourseInfo struct {
	ID          string
	Title       string
	Language    string
	LessonCount int
	UpdatedAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// Lookup - read-only контракт подсистемы контента.
// Движок прогресса обращается к нему перед записью завершения
// и при вычислении аналитики.
type Lookup interface {
	// LessonExists проверяет существование опубликованного урока.
	LessonExists(ctx context.Context, lessonID string) (bool, error)

	// GetLesson возвращает представление урока.
	// Возвращает shared.ErrLessonNotFound, если урока нет.
	GetLesson(ctx context.Context, lessonID string) (*LessonInfo, error)

	// TotalLessonCount возвращает общее число опубликованных уроков
	// на платформе - знаменатель процента завершения.
	TotalLessonCount(ctx context.Context) (int, error)

	// GetCourseStats возвращает агрегаты started/completed по курсам
	// для пользователя.
	GetCourseStats(ctx context.Context, userID string) (*CourseStats, error)
}
