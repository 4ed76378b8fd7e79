package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

func TestNewUserProgress_Defaults(t *testing.T) {
	p := NewUserProgress("user-1")

	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, 0, p.ExperiencePoints)
	assert.Equal(t, DefaultLives, p.LivesCurrent)
	assert.Equal(t, 0, p.StreakCurrent)
	assert.Nil(t, p.LastCompletedLessonID)
	assert.Nil(t, p.LastActivityDate)
}

func TestUserProgress_AdjustLives(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{name: "decrement", start: 5, delta: -1, want: 4},
		{name: "increment", start: 5, delta: 2, want: 7},
		{name: "clamped at upper bound", start: 9, delta: 5, want: MaxLives},
		{name: "clamped at zero", start: 2, delta: -7, want: 0},
		{name: "zero delta", start: 5, delta: 0, want: 5},
		{name: "large positive delta from zero", start: 0, delta: 100, want: MaxLives},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUserProgress("user-1")
			p.LivesCurrent = tt.start
			got := p.AdjustLives(tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, p.LivesCurrent)
		})
	}
}

func TestUserProgress_AddExperience(t *testing.T) {
	p := NewUserProgress("user-1")

	require.NoError(t, p.AddExperience(50))
	require.NoError(t, p.AddExperience(0))
	assert.Equal(t, 50, p.ExperiencePoints)

	err := p.AddExperience(-10)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
	assert.Equal(t, 50, p.ExperiencePoints)
}

func TestUserProgress_RecordCompletion(t *testing.T) {
	p := NewUserProgress("user-1")
	p.ExperiencePoints = 100
	completedAt := timeutil.DateTime(2024, 3, 10, 18, 0, 0)

	p.RecordCompletion("lesson-7", 12, 4, completedAt)

	assert.Equal(t, 112, p.ExperiencePoints)
	assert.Equal(t, 4, p.StreakCurrent)
	require.NotNil(t, p.LastCompletedLessonID)
	assert.Equal(t, "lesson-7", *p.LastCompletedLessonID)
	require.NotNil(t, p.LastActivityDate)
	assert.True(t, p.LastActivityDate.Equal(completedAt))
	assert.True(t, p.UpdatedAt.Equal(completedAt))
}

func TestUserProgress_ResetToDefaults(t *testing.T) {
	p := NewUserProgress("user-1")
	p.ExperiencePoints = 420
	p.LivesCurrent = 2
	p.StreakCurrent = 9
	now := time.Now().UTC()
	p.LastActivityDate = &now
	lesson := "lesson-3"
	p.LastCompletedLessonID = &lesson

	p.ResetToDefaults()

	assert.Equal(t, 0, p.ExperiencePoints)
	assert.Equal(t, DefaultLives, p.LivesCurrent)
	assert.Equal(t, 0, p.StreakCurrent)
	assert.Nil(t, p.LastActivityDate)
	assert.Nil(t, p.LastCompletedLessonID)
}

func TestLessonCompletion_Validate(t *testing.T) {
	valid := func() *LessonCompletion {
		return &LessonCompletion{
			ID:          "c-1",
			UserID:      "user-1",
			LessonID:    "lesson-1",
			CompletedAt: time.Now().UTC(),
		}
	}

	t.Run("valid without optional fields", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("valid with score and time", func(t *testing.T) {
		c := valid()
		c.Score = intPtr(100)
		c.TimeSpentSeconds = intPtr(0)
		assert.NoError(t, c.Validate())
	})

	t.Run("score above range", func(t *testing.T) {
		c := valid()
		c.Score = intPtr(101)
		assert.ErrorIs(t, c.Validate(), shared.ErrValueOutOfRange)
	})

	t.Run("negative score", func(t *testing.T) {
		c := valid()
		c.Score = intPtr(-1)
		assert.ErrorIs(t, c.Validate(), shared.ErrValueOutOfRange)
	})

	t.Run("negative time spent", func(t *testing.T) {
		c := valid()
		c.TimeSpentSeconds = intPtr(-5)
		assert.ErrorIs(t, c.Validate(), shared.ErrNegativeValue)
	})

	t.Run("missing user", func(t *testing.T) {
		c := valid()
		c.UserID = ""
		assert.ErrorIs(t, c.Validate(), shared.ErrInvalidID)
	})
}
