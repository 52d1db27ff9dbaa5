package market

import (
	"fmt"
	"strings"
	"time"
)

// Gap is a run of missing bars on the expected time grid.
type Gap struct {
	Start   time.Time // first missing bar
	Missing int       // number of missing intervals
	Kind    string    // minor, suspicious or outage
}

type GapStats struct {
	Expected       int // bars on the grid between the first and last bar
	Present        int // distinct timestamps on the grid
	Missing        int
	GapCount       int
	SuspiciousGaps int
	Outages        int
	LongestGap     int
	LongestGapKind string
}

// FindGaps walks time-sorted bars and reports every hole wider than step.
// Duplicate timestamps and bars between grid points are not gaps.
func FindGaps(bars []Bar, step time.Duration) []Gap {
	if step <= 0 || len(bars) < 2 {
		return nil
	}

	var gaps []Gap
	for i := 1; i < len(bars); i++ {
		delta := bars[i].Time.Sub(bars[i-1].Time)
		missing := int(delta/step) - 1
		if missing <= 0 {
			continue
		}
		gaps = append(gaps, Gap{
			Start:   bars[i-1].Time.Add(step),
			Missing: missing,
			Kind:    classifyGap(missing, step),
		})
	}
	return gaps
}

// classifyGap labels a hole. Crypto trades around the clock, so there is no
// weekend exemption: a day or more missing is an outage.
func classifyGap(missing int, step time.Duration) string {
	span := time.Duration(missing) * step
	switch {
	case span >= 24*time.Hour:
		return "outage"
	case span >= 3*time.Hour:
		return "suspicious"
	default:
		return "minor"
	}
}

// SummarizeGaps computes coverage statistics of bars on a step grid.
func SummarizeGaps(bars []Bar, step time.Duration) GapStats {
	var s GapStats
	if step <= 0 || len(bars) == 0 {
		return s
	}

	span := bars[len(bars)-1].Time.Sub(bars[0].Time)
	s.Expected = int(span/step) + 1

	s.Present = 1
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.Equal(bars[i-1].Time) {
			s.Present++
		}
	}

	for _, g := range FindGaps(bars, step) {
		s.GapCount++
		s.Missing += g.Missing
		if g.Missing > s.LongestGap {
			s.LongestGap = g.Missing
			s.LongestGapKind = g.Kind
		}
		switch g.Kind {
		case "suspicious":
			s.SuspiciousGaps++
		case "outage":
			s.Outages++
		}
	}
	return s
}

// Gaps reports the holes in the set on a step grid.
func (bs *BarSet) Gaps(step time.Duration) GapStats {
	return SummarizeGaps(bs.Bars, step)
}

// ParseTimeframe accepts the usual bar labels (M1, M5, M15, M30, H1, H4, D1,
// W1) or a Go duration such as "1h".
func ParseTimeframe(tf string) (time.Duration, error) {
	switch strings.ToUpper(strings.TrimSpace(tf)) {
	case "M1":
		return time.Minute, nil
	case "M5":
		return 5 * time.Minute, nil
	case "M15":
		return 15 * time.Minute, nil
	case "M30":
		return 30 * time.Minute, nil
	case "", "H1":
		return time.Hour, nil
	case "H4":
		return 4 * time.Hour, nil
	case "D1":
		return 24 * time.Hour, nil
	case "W1":
		return 7 * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(tf)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("unsupported timeframe: %s", tf)
	}
	return d, nil
}
