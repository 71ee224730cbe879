package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) *clock.TimeOfDay {
	t.Helper()
	v, err := clock.ParseTime(s)
	require.NoError(t, err)
	return &v
}

func TestCalculateTotalHours(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
		want string
	}{
		{"full day spans lunch", "7:30 AM", "5:00 PM", "08:30"},
		{"same time", "9:00 AM", "9:00 AM", "00:00"},
		{"morning only", "8:00 AM", "12:00 PM", "04:00"},
		{"afternoon only", "1:00 PM", "5:00 PM", "04:00"},
		{"inside lunch clamps to zero", "12:15 PM", "12:45 PM", "00:00"},
		{"ends inside lunch", "9:00 AM", "12:30 PM", "02:30"},
		{"overnight wraps", "10:00 PM", "6:00 AM", "08:00"},
		{"overnight from late morning", "11:00 AM", "1:00 AM", "13:00"},
		{"overnight into next lunch", "11:00 PM", "1:00 PM", "13:00"},
		{"overnight ends before next lunch", "11:00 PM", "11:00 AM", "12:00"},
		{"overnight spans both lunches", "12:30 PM", "12:15 PM", "21:45"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, CalculateTotalHours(mustTime(t, c.in), mustTime(t, c.out)))
		})
	}
}

func TestCalculateTotalHours_Missing(t *testing.T) {
	assert.Empty(t, CalculateTotalHours(nil, mustTime(t, "5:00 PM")))
	assert.Empty(t, CalculateTotalHours(mustTime(t, "8:00 AM"), nil))
}
