package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrInvalidBar is wrapped by Validate for feeds the engine cannot run on.
	ErrInvalidBar = errors.New("invalid bar")

	// ErrMissingColumn is returned by the loaders when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// Bar is a single hourly observation: close price and quote volume.
type Bar struct {
	Time   time.Time
	Close  float64
	Volume float64
}

// Normalize returns a copy of bars sorted ascending by time. Bars sharing a
// timestamp keep their input order. The caller's slice is never modified.
func Normalize(bars []Bar) []Bar {
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Validate checks the feed invariants the simulation relies on.
func Validate(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty feed", ErrInvalidBar)
	}
	for i, b := range bars {
		if !(b.Close > 0) {
			return fmt.Errorf("%w: bar %d close %v must be positive", ErrInvalidBar, i, b.Close)
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d volume %v must be non-negative", ErrInvalidBar, i, b.Volume)
		}
		if i > 0 && b.Time.Before(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s precedes bar %d", ErrInvalidBar, i, b.Time.Format(time.RFC3339), i-1)
		}
	}
	return nil
}

// Closes extracts the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
