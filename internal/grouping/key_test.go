package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/homilyd/internal/apperr"
)

func TestKey_ScenarioC(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"saturday vigil", time.Date(2025, 6, 14, 16, 0, 0, 0, loc), "2025-06-15"},
		{"saturday morning", time.Date(2025, 6, 14, 10, 0, 0, 0, loc), "2025-06-14"},
		{"saturday at vigil hour", time.Date(2025, 6, 14, 15, 0, 0, 0, loc), "2025-06-15"},
		{"saturday just before vigil", time.Date(2025, 6, 14, 14, 59, 59, 0, loc), "2025-06-14"},
		{"sunday", time.Date(2025, 6, 15, 9, 30, 0, 0, loc), "2025-06-15"},
		{"tuesday", time.Date(2025, 6, 17, 18, 0, 0, 0, loc), "2025-06-17"},
		{"vigil across month end", time.Date(2025, 5, 31, 17, 0, 0, 0, loc), "2025-06-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.at, loc))
		})
	}
}

func TestKey_UsesReferenceZone(t *testing.T) {
	t.Parallel()

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 22:00 UTC Saturday is 17:00 Saturday in Chicago (CDT).
	at := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-15", Key(at, chicago))
	// 13:00 UTC Saturday is 08:00 in Chicago.
	at = time.Date(2025, 6, 14, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-14", Key(at, chicago))
}

func TestRule_Deadline(t *testing.T) {
	t.Parallel()

	r := DefaultRule(time.UTC)
	d, err := r.Deadline("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 21, 0, 0, 0, time.UTC), d)

	due, err := r.Due("2025-06-15", d.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, due)

	due, err = r.Due("2025-06-15", d)
	require.NoError(t, err)
	assert.True(t, due)

	_, err = r.Deadline("June 15")
	require.ErrorIs(t, err, apperr.ErrInvalidGroupKey)
}
