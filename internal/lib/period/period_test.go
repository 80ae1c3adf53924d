package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths_TableTests(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "plain month",
			start:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "end of month clamps in leap year",
			start:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "end of month clamps in common year",
			start:  time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "crosses year boundary",
			start:  time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			months: 3,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "six months",
			start:  time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
			months: 6,
			want:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.months))
		})
	}
}

func TestAddDays(t *testing.T) {
	start := time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), AddDays(start, 7))
}

func TestBase(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("empty end uses now", func(t *testing.T) {
		got, err := Base(now, "")
		require.NoError(t, err)
		assert.Equal(t, now, got)
	})

	t.Run("future end is kept", func(t *testing.T) {
		got, err := Base(now, "2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("past end falls back to now", func(t *testing.T) {
		got, err := Base(now, "2024-01-01")
		require.NoError(t, err)
		assert.Equal(t, now, got)
	})

	t.Run("corrupt end falls back to now with error", func(t *testing.T) {
		got, err := Base(now, "31/12/2024")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "period.ParseDate")
		assert.Equal(t, now, got)
	})
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     string
		want    bool
		wantErr bool
	}{
		{name: "no subscription", end: "", want: true},
		{name: "ends in future", end: "2024-05-11", want: false},
		{name: "ends today at midnight", end: "2024-05-10", want: true},
		{name: "ended in past", end: "2023-12-31", want: true},
		{name: "corrupt date", end: "garbage", want: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expired(now, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
