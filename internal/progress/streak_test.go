package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestCalculateStreak(t *testing.T) {
	today := date(2024, 1, 10, 12)

	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{name: "no dates", want: 0},
		{name: "only today", dates: []time.Time{date(2024, 1, 10, 8)}, want: 1},
		{name: "ending yesterday", dates: []time.Time{date(2024, 1, 8, 9), date(2024, 1, 9, 21)}, want: 2},
		{name: "lapsed", dates: []time.Time{date(2024, 1, 7, 9), date(2024, 1, 8, 9)}, want: 0},
		{
			name: "same day counted once",
			dates: []time.Time{
				date(2024, 1, 10, 7), date(2024, 1, 10, 22), date(2024, 1, 9, 10), date(2024, 1, 9, 11),
			},
			want: 2,
		},
		{
			name: "gap stops the count",
			dates: []time.Time{
				date(2024, 1, 10, 7), date(2024, 1, 9, 7), date(2024, 1, 7, 7), date(2024, 1, 6, 7),
			},
			want: 2,
		},
		{
			name:  "future date",
			dates: []time.Time{date(2024, 1, 9, 7), date(2024, 1, 10, 7), date(2024, 1, 15, 7)},
			want:  0,
		},
		{
			name:  "unordered input",
			dates: []time.Time{date(2024, 1, 8, 7), date(2024, 1, 10, 7), date(2024, 1, 9, 7)},
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateStreak(tt.dates, today, time.UTC))
		})
	}
}

func TestCalculateStreak_Location(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	today := date(2024, 1, 10, 12)

	// 2024-01-09 20:00 UTC is already 2024-01-10 in UTC+9
	dates := []time.Time{date(2024, 1, 9, 20), date(2024, 1, 9, 1)}

	assert.Equal(t, 1, CalculateStreak(dates, today, time.UTC))
	assert.Equal(t, 2, CalculateStreak(dates, today, tokyo))
}

func TestCurrentStreak(t *testing.T) {
	now := date(2024, 1, 10, 12)
	yesterday := date(2024, 1, 9, 23)
	older := date(2024, 1, 8, 23)

	assert.Equal(t, 0, CurrentStreak(4, nil, now, time.UTC))
	assert.Equal(t, 4, CurrentStreak(4, &now, now, time.UTC))
	assert.Equal(t, 4, CurrentStreak(4, &yesterday, now, time.UTC))
	assert.Equal(t, 0, CurrentStreak(4, &older, now, time.UTC))
}
