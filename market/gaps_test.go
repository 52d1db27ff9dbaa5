package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(t0 time.Time, offsets ...int) []Bar {
	bars := make([]Bar, len(offsets))
	for i, h := range offsets {
		bars[i] = Bar{Time: t0.Add(time.Duration(h) * time.Hour), Close: 1}
	}
	return bars
}

func TestFindGaps(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := hourly(t0, 0, 1, 3, 3, 8, 40)

	gaps := FindGaps(bars, time.Hour)
	require.Len(t, gaps, 3)

	assert.Equal(t, Gap{Start: t0.Add(2 * time.Hour), Missing: 1, Kind: "minor"}, gaps[0])
	assert.Equal(t, Gap{Start: t0.Add(4 * time.Hour), Missing: 4, Kind: "suspicious"}, gaps[1])
	assert.Equal(t, Gap{Start: t0.Add(9 * time.Hour), Missing: 31, Kind: "outage"}, gaps[2])

	assert.Empty(t, FindGaps(bars[:2], time.Hour))
	assert.Empty(t, FindGaps(bars, 0))
}

func TestSummarizeGaps(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := SummarizeGaps(hourly(t0, 0, 1, 3, 3, 8, 40), time.Hour)

	assert.Equal(t, 41, s.Expected)
	assert.Equal(t, 5, s.Present)
	assert.Equal(t, 36, s.Missing)
	assert.Equal(t, 3, s.GapCount)
	assert.Equal(t, 1, s.SuspiciousGaps)
	assert.Equal(t, 1, s.Outages)
	assert.Equal(t, 31, s.LongestGap)
	assert.Equal(t, "outage", s.LongestGapKind)

	assert.Equal(t, GapStats{}, SummarizeGaps(nil, time.Hour))
}

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Duration{
		"H1":  time.Hour,
		"h4":  4 * time.Hour,
		"":    time.Hour,
		"M15": 15 * time.Minute,
		"D1":  24 * time.Hour,
		"2h":  2 * time.Hour,
	}
	for in, want := range tests {
		got, err := ParseTimeframe(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"MN1", "-1h", "weekly"} {
		_, err := ParseTimeframe(bad)
		assert.Error(t, err, bad)
	}
}
