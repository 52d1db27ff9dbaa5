// Package indicators provides streaming technical indicators over close prices.
package indicators

// Indicator computes a single streaming value from closes.
// It is deterministic and safe to use in both the event-driven engine and the
// vectorized approximation.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "EMA(50)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar's price.
	Update(close float64)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, 0 until Ready.
	Value() float64
}

// RollingMean returns the trailing mean of xs over window, one value per
// input. Positions before the window fills hold NaN.
func RollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	ma := NewSMA(window)
	for i, x := range xs {
		ma.Update(x)
		if ma.Ready() {
			out[i] = ma.Value()
		} else {
			out[i] = nan
		}
	}
	return out
}
