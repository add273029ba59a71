package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthday-liberator/internal/engine"
)

func TestNormalizeBirthday_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		year int
		want time.Time
	}{
		{"Full date keeps its own year", "1990-05-17", 2025, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"Year-less anchors to processing year", "--05-17", 2025, time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"Leap day with full date", "2000-02-29", 2025, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"Year-less leap day in leap year", "--02-29", 2024, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"Old dates are fine", "1815-12-10", 2025, time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.NormalizeBirthday(tt.raw, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBirthday_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"Garbage", "not-a-date", engine.ErrDateFormat},
		{"Empty", "", engine.ErrDateFormat},
		{"Month and day out of range", "2024-13-40", engine.ErrDateInvalid},
		{"Feb 29 in common year", "2023-02-29", engine.ErrDateInvalid},
		{"Year-less Feb 29 in common year", "--02-29", engine.ErrDateInvalid},
		{"Year-less bad month", "--13-01", engine.ErrDateInvalid},
		{"Basic format is not accepted", "19901025", engine.ErrDateFormat},
		{"Timestamp is not accepted", "1990-10-25T00:00:00Z", engine.ErrDateFormat},
		{"Slashes", "1990/10/25", engine.ErrDateFormat},
		{"Single digit month", "--5-17", engine.ErrDateFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NormalizeBirthday(tt.raw, 2025)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
