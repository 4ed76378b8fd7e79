package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestExperienceForCompletion_ScoreBands(t *testing.T) {
	tests := []struct {
		name   string
		baseXP int
		score  *int
		want   int
	}{
		{name: "excellent band", baseXP: 10, score: intPtr(95), want: 12},
		{name: "excellent band lower edge", baseXP: 10, score: intPtr(90), want: 12},
		{name: "good band", baseXP: 10, score: intPtr(85), want: 11},
		{name: "good band lower edge", baseXP: 10, score: intPtr(80), want: 11},
		{name: "neutral band", baseXP: 10, score: intPtr(70), want: 10},
		{name: "neutral band lower edge", baseXP: 10, score: intPtr(60), want: 10},
		{name: "poor band", baseXP: 10, score: intPtr(45), want: 8},
		{name: "poor band at zero", baseXP: 10, score: intPtr(0), want: 8},
		{name: "unscored is neutral", baseXP: 10, score: nil, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExperienceForCompletion(tt.baseXP, tt.score))
		})
	}
}

func TestExperienceForCompletion_FlooredThenClamped(t *testing.T) {
	// 5 * 1.1 = 5.5, floors to 5.
	assert.Equal(t, 5, ExperienceForCompletion(5, intPtr(85)))

	// 1 * 0.8 = 0.8, floors to 0, clamped to the 1 XP minimum.
	assert.Equal(t, 1, ExperienceForCompletion(1, intPtr(10)))

	// A zero-value lesson still grants the minimum.
	assert.Equal(t, 1, ExperienceForCompletion(0, nil))
}

func TestScoreModifier(t *testing.T) {
	assert.Equal(t, 1.2, ScoreModifier(intPtr(100)))
	assert.Equal(t, 1.1, ScoreModifier(intPtr(89)))
	assert.Equal(t, 1.0, ScoreModifier(intPtr(79)))
	assert.Equal(t, 0.8, ScoreModifier(intPtr(59)))
	assert.Equal(t, 1.0, ScoreModifier(nil))
}
