package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lingua-hub/lingua-progress-hub/pkg/timeutil"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestNextStreak(t *testing.T) {
	jan1 := timeutil.DateTime(2024, 1, 1, 10, 0, 0)
	jan2 := timeutil.DateTime(2024, 1, 2, 9, 30, 0)
	jan5 := timeutil.DateTime(2024, 1, 5, 20, 0, 0)

	tests := []struct {
		name       string
		prevStreak int
		prevDate   *time.Time
		now        time.Time
		want       int
		wantBroken bool
	}{
		{
			name:       "first ever activity",
			prevStreak: 0,
			prevDate:   nil,
			now:        jan1,
			want:       1,
		},
		{
			name:       "next calendar day extends",
			prevStreak: 1,
			prevDate:   timePtr(jan1),
			now:        jan2,
			want:       2,
		},
		{
			name:       "same day keeps streak",
			prevStreak: 3,
			prevDate:   timePtr(jan1),
			now:        timeutil.DateTime(2024, 1, 1, 23, 59, 0),
			want:       3,
		},
		{
			name:       "same day establishes minimum of one",
			prevStreak: 0,
			prevDate:   timePtr(jan1),
			now:        jan1,
			want:       1,
		},
		{
			name:       "two day gap resets",
			prevStreak: 3,
			prevDate:   timePtr(jan2),
			now:        jan5,
			want:       1,
			wantBroken: true,
		},
		{
			name:       "gap after single day streak resets without break",
			prevStreak: 1,
			prevDate:   timePtr(jan1),
			now:        jan5,
			want:       1,
			wantBroken: false,
		},
		{
			name:       "clock skew treated as same day",
			prevStreak: 4,
			prevDate:   timePtr(jan5),
			now:        jan2,
			want:       4,
		},
		{
			name:       "extends across midnight boundary",
			prevStreak: 2,
			prevDate:   timePtr(timeutil.DateTime(2024, 1, 1, 23, 58, 0)),
			now:        timeutil.DateTime(2024, 1, 2, 0, 1, 0),
			want:       3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broken := NextStreak(tt.prevStreak, tt.prevDate, tt.now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantBroken, broken)
		})
	}
}

func TestNextStreak_ConsecutiveDaysSequence(t *testing.T) {
	// Активность 1, 2 и 3 января даёт серию 1, 2, 3.
	var prevDate *time.Time
	streak := 0

	for day := 1; day <= 3; day++ {
		now := timeutil.DateTime(2024, 1, day, 12, 0, 0)
		var broken bool
		streak, broken = NextStreak(streak, prevDate, now)
		assert.False(t, broken)
		assert.Equal(t, day, streak)
		prevDate = timePtr(now)
	}

	// Пропуск 4 января: завершение 5 января начинает серию заново.
	streak, broken := NextStreak(streak, prevDate, timeutil.DateTime(2024, 1, 5, 12, 0, 0))
	assert.True(t, broken)
	assert.Equal(t, 1, streak)
}

func TestLongestStreak(t *testing.T) {
	day := func(d int) time.Time { return timeutil.DateTime(2024, 1, d, 14, 0, 0) }

	tests := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{
			name:  "empty history",
			times: nil,
			want:  0,
		},
		{
			name:  "single completion",
			times: []time.Time{day(1)},
			want:  1,
		},
		{
			name:  "longest run is not the trailing run",
			times: []time.Time{day(1), day(2), day(3), day(6), day(7), day(8), day(9)},
			want:  4,
		},
		{
			name:  "multiple completions per day count once",
			times: []time.Time{day(1), day(1), day(2), timeutil.DateTime(2024, 1, 2, 23, 0, 0), day(3)},
			want:  3,
		},
		{
			name:  "unsorted input",
			times: []time.Time{day(9), day(2), day(1), day(8), day(3), day(7)},
			want:  3,
		},
		{
			name:  "no consecutive days",
			times: []time.Time{day(1), day(3), day(5)},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(tt.times))
		})
	}
}
