package progress

import (
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPERIENCE CALCULATION
// ══════════════════════════════════════════════════════════════════════════════

// Модификаторы XP по диапазонам оценки. Урок без оценки получает
// нейтральный модификатор.
const (
	modifierExcellent = 1.2 // оценка >= 90
	modifierGood      = 1.1 // 80-89
	modifierNeutral   = 1.0 // 60-79 или без оценки
	modifierPoor      = 0.8 // < 60
)

// ScoreModifier возвращает модификатор XP для оценки.
// nil означает "урок без оценки" и даёт нейтральный модификатор.
func ScoreModifier(score *int) float64 {
	if score == nil {
		return modifierNeutral
	}
	switch {
	case *score >= 90:
		return modifierExcellent
	case *score >= 80:
		return modifierGood
	case *score >= 60:
		return modifierNeutral
	default:
		return modifierPoor
	}
}

// ExperienceForCompletion вычисляет XP за завершение урока:
// базовое значение урока, умноженное на модификатор оценки,
// с округлением вниз и нижней границей в 1 XP.
func ExperienceForCompletion(baseXP int, score *int) int {
	gained := int(math.Floor(float64(baseXP) * ScoreModifier(score)))
	if gained < MinExperienceGain {
		gained = MinExperienceGain
	}
	return gained
}
