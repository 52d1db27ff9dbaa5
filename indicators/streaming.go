package indicators

import (
	"fmt"
	"math"
)

var nan = math.NaN()

// SMA is a streaming Simple Moving Average.
type SMA struct {
	period int
	window []float64
	next   int
	count  int
}

// NewSMA creates a Simple Moving Average with the given period. Periods
// below one are treated as one.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		window: make([]float64, period),
	}
}

func (m *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SMA) Warmup() int {
	return m.period
}

func (m *SMA) Reset() {
	clear(m.window)
	m.next = 0
	m.count = 0
}

func (m *SMA) Update(close float64) {
	if m.count < m.period {
		m.count++
	}
	m.window[m.next] = close
	m.next = (m.next + 1) % m.period
}

func (m *SMA) Ready() bool {
	return m.count >= m.period
}

// Value sums the window on every call so long feeds do not accumulate
// rounding drift.
func (m *SMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, v := range m.window {
		sum += v
	}
	return sum / float64(m.period)
}

// EMA is a streaming Exponential Moving Average seeded with the SMA of the
// first period values.
type EMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

// NewEMA creates an Exponential Moving Average with the given period.
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *EMA) Warmup() int {
	return e.period
}

func (e *EMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *EMA) Update(close float64) {
	if e.count < e.period {
		// During warmup, accumulate sum for initial SMA
		e.warmupSum += close
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (close-e.ema)*e.multiplier + e.ema
}

func (e *EMA) Ready() bool {
	return e.count >= e.period
}

func (e *EMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

var (
	_ Indicator = (*SMA)(nil)
	_ Indicator = (*EMA)(nil)
)
