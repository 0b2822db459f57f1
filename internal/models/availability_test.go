package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayTruncatesTimestamps(t *testing.T) {
	a, err := ParseDay("2025-06-10")
	require.NoError(t, err)
	b, err := ParseDay("2025-06-10T21:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = ParseDay("10/06/2025")
	assert.Error(t, err)
}

func TestCanonicalDates(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
		bad  []int
	}{
		{
			name: "dedupes and sorts",
			in:   []string{"2025-06-12T00:00:00.000Z", "2025-06-10", "2025-06-10T00:00:00.000Z"},
			want: []string{"2025-06-10T00:00:00.000Z", "2025-06-12T00:00:00.000Z"},
		},
		{
			name: "timestamps collapse to their day",
			in:   []string{"2025-06-10T23:59:00+00:00", "2025-06-10T08:00:00Z"},
			want: []string{"2025-06-10T00:00:00.000Z"},
		},
		{
			name: "reports entries that are not dates",
			in:   []string{"2025-06-10", "garbage", ""},
			want: []string{"2025-06-10T00:00:00.000Z"},
			bad:  []int{1, 2},
		},
		{
			name: "empty",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bad := CanonicalDates(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, bad, len(tt.bad))
			for _, i := range tt.bad {
				assert.Contains(t, bad, i)
			}
		})
	}
}
