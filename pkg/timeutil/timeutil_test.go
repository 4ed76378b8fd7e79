package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{
			name: "same instant",
			a:    Date(2024, 1, 1),
			b:    Date(2024, 1, 1),
			want: 0,
		},
		{
			name: "same day different clock",
			a:    DateTime(2024, 1, 1, 0, 5, 0),
			b:    DateTime(2024, 1, 1, 23, 59, 59),
			want: 0,
		},
		{
			name: "consecutive days across midnight",
			a:    DateTime(2024, 1, 1, 23, 59, 59),
			b:    DateTime(2024, 1, 2, 0, 0, 1),
			want: 1,
		},
		{
			name: "two day gap",
			a:    Date(2024, 1, 3),
			b:    Date(2024, 1, 5),
			want: 2,
		},
		{
			name: "negative when b before a",
			a:    Date(2024, 1, 5),
			b:    Date(2024, 1, 3),
			want: -2,
		},
		{
			name: "month boundary",
			a:    Date(2024, 1, 31),
			b:    Date(2024, 2, 1),
			want: 1,
		},
		{
			name: "year boundary",
			a:    Date(2023, 12, 31),
			b:    Date(2024, 1, 1),
			want: 1,
		},
		{
			name: "leap day",
			a:    Date(2024, 2, 28),
			b:    Date(2024, 3, 1),
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestDaysBetween_NonReferenceZoneInput(t *testing.T) {
	// 2024-01-01 23:00 in UTC+5 is 18:00 UTC the same day.
	plus5 := time.FixedZone("UTC+5", 5*60*60)
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, plus5)
	b := Date(2024, 1, 2)

	assert.Equal(t, 1, DaysBetween(a, b))
	assert.False(t, SameDay(a, b))
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(DateTime(2024, 6, 15, 13, 45, 12))
	assert.Equal(t, Date(2024, 6, 15), got)
	assert.Equal(t, ReferenceTZ, got.Location())
}

func TestNextDay(t *testing.T) {
	assert.Equal(t, Date(2024, 3, 1), NextDay(DateTime(2024, 2, 29, 10, 0, 0)))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-01-05", FormatDate(DateTime(2024, 1, 5, 18, 30, 0)))
}
