// Package leaderboard содержит доменную модель рейтинга учащихся по XP.
// Рейтинг - производная проекция от прогресса: источником истины остаётся
// таблица прогресса, Redis лишь ускоряет чтение.
package leaderboard

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию учащегося в рейтинге, начиная с 1.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если учащийся в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - одна строка рейтинга.
type Entry struct {
	// UserID - идентификатор учащегося.
	UserID string `json:"user_id"`

	// ExperiencePoints - накопленный XP (ключ сортировки, по убыванию).
	ExperiencePoints int `json:"experience_points"`

	// Rank - позиция в рейтинге.
	Rank Rank `json:"rank"`
}

// Page - страница рейтинга.
type Page struct {
	Entries     []*Entry  `json:"entries"`
	TotalCount  int       `json:"total_count"`
	Page        int       `json:"page"`
	PageSize    int       `json:"page_size"`
	GeneratedAt time.Time `json:"generated_at"`
}
