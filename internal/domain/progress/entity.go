// Package progress содержит ядро движка прогресса и геймификации:
// прогресс пользователя (XP, жизни, серия дней) и неизменяемые записи
// о завершении уроков. Вся мутация состояния проходит через этот пакет.
package progress

import (
	"time"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultLives - количество жизней при создании прогресса.
	DefaultLives = 5

	// MaxLives - верхняя граница жизней.
	MaxLives = 10

	// MinLives - нижняя граница жизней.
	MinLives = 0

	// MinExperienceGain - завершение урока всегда даёт минимум 1 XP,
	// независимо от модификатора и округления.
	MinExperienceGain = 1

	// MaxScore - максимальная оценка за урок.
	MaxScore = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress представляет изменяемое состояние прогресса одного пользователя.
// Ровно одна запись на пользователя; создаётся лениво при первом обращении.
type UserProgress struct {
	// UserID - идентификатор пользователя, никогда не меняется.
	UserID string

	// ExperiencePoints - накопленный XP. Неотрицателен, монотонно
	// не убывает, кроме явного административного сброса.
	ExperiencePoints int

	// LivesCurrent - текущее количество жизней, в границах [0, 10].
	LivesCurrent int

	// StreakCurrent - текущая серия календарных дней с активностью.
	StreakCurrent int

	// LastCompletedLessonID - последний завершённый урок (информационное поле).
	LastCompletedLessonID *string

	// LastActivityDate - время последнего завершения, продвинувшего серию.
	LastActivityDate *time.Time

	// UpdatedAt - обновляется при каждой мутации.
	UpdatedAt time.Time
}

// NewUserProgress создаёт прогресс со значениями по умолчанию
// {XP: 0, жизни: 5, серия: 0}.
func NewUserProgress(userID string) *UserProgress {
	return &UserProgress{
		UserID:           userID,
		ExperiencePoints: 0,
		LivesCurrent:     DefaultLives,
		StreakCurrent:    0,
		UpdatedAt:        time.Now().UTC(),
	}
}

// AddExperience добавляет XP. Отрицательные значения отклоняются:
// XP убывает только при сбросе.
func (p *UserProgress) AddExperience(points int) error {
	if points < 0 {
		return shared.ErrNegativeValue
	}
	p.ExperiencePoints += points
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustLives применяет дельту к жизням с зажимом в границы [0, 10].
// Возвращает фактическое значение после зажима.
func (p *UserProgress) AdjustLives(delta int) int {
	lives := p.LivesCurrent + delta
	if lives > MaxLives {
		lives = MaxLives
	}
	if lives < MinLives {
		lives = MinLives
	}
	p.LivesCurrent = lives
	p.UpdatedAt = time.Now().UTC()
	return lives
}

// RecordCompletion применяет к прогрессу результат завершения урока:
// XP, новую серию и отметку активности. Вызывается только внутри
// транзакции записи завершения.
func (p *UserProgress) RecordCompletion(lessonID string, gained int, newStreak int, completedAt time.Time) {
	p.ExperiencePoints += gained
	p.StreakCurrent = newStreak
	p.LastCompletedLessonID = &lessonID
	t := completedAt
	p.LastActivityDate = &t
	p.UpdatedAt = completedAt
}

// ResetToDefaults возвращает прогресс к состоянию нового пользователя.
// Деструктивная операция, вызывается только административным сбросом.
func (p *UserProgress) ResetToDefaults() {
	p.ExperiencePoints = 0
	p.LivesCurrent = DefaultLives
	p.StreakCurrent = 0
	p.LastCompletedLessonID = nil
	p.LastActivityDate = nil
	p.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

// LessonCompletion - неизменяемая запись о завершении урока.
// Пара (UserID, LessonID) уникальна: повторная попытка завершения
// никогда не создаёт вторую запись.
type LessonCompletion struct {
	// ID - суррогатный идентификатор записи.
	ID string

	// UserID - кто завершил урок.
	UserID string

	// LessonID - какой урок завершён.
	LessonID string

	// CompletedAt - момент завершения; используется для серий и аналитики.
	CompletedAt time.Time

	// Score - оценка в [0, 100]; nil означает "без оценки".
	Score *int

	// TimeSpentSeconds - затраченное время; nil означает "не измерялось".
	TimeSpentSeconds *int
}

// Validate проверяет границы опциональных полей завершения.
func (c *LessonCompletion) Validate() error {
	if c.UserID == "" {
		return shared.ErrInvalidUserID
	}
	if c.LessonID == "" {
		return shared.ErrLessonNotFound
	}
	if c.Score != nil && (*c.Score < 0 || *c.Score > MaxScore) {
		return shared.ErrInvalidScore
	}
	if c.TimeSpentSeconds != nil && *c.TimeSpentSeconds < 0 {
		return shared.ErrInvalidTimeSpent
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN ADJUSTMENT (audit trail)
// ══════════════════════════════════════════════════════════════════════════════

// AdjustmentKind - тип административной операции.
type AdjustmentKind string

const (
	// AdjustmentBonus - начисление бонусного XP.
	AdjustmentBonus AdjustmentKind = "bonus"

	// AdjustmentReset - полный сброс прогресса.
	AdjustmentReset AdjustmentKind = "reset"
)

// AdminAdjustment - запись аудита привилегированной операции.
// Причина хранится для истории и не влияет на вычисления.
type AdminAdjustment struct {
	// ID - идентификатор записи аудита.
	ID string

	// TargetUserID - пользователь, чей прогресс изменён.
	TargetUserID string

	// ActorID - администратор, выполнивший операцию.
	ActorID string

	// Kind - тип операции.
	Kind AdjustmentKind

	// PointsDelta - изменение XP (0 для сброса).
	PointsDelta int

	// Reason - причина операции.
	Reason string

	// CreatedAt - когда операция выполнена.
	CreatedAt time.Time
}
