package backtest

import (
	"fmt"
	"strings"
)

// FeeBasis selects what the fee rate is applied to.
type FeeBasis int

const (
	// FeeNotional charges rate × initial capital on every side, so the cost
	// of a trade never changes as equity compounds.
	FeeNotional FeeBasis = iota

	// FeeCurrentEquity charges rate × equity at the moment of the fill.
	FeeCurrentEquity
)

func (b FeeBasis) String() string {
	switch b {
	case FeeNotional:
		return "notional"
	case FeeCurrentEquity:
		return "current-equity"
	default:
		return fmt.Sprintf("FeeBasis(%d)", int(b))
	}
}

func ParseFeeBasis(s string) (FeeBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "notional":
		return FeeNotional, nil
	case "current-equity", "equity":
		return FeeCurrentEquity, nil
	default:
		return FeeNotional, fmt.Errorf("unknown fee basis %q (supported: notional, current-equity)", s)
	}
}

// FeeModel is a flat fractional cost charged once on entry and once on exit.
type FeeModel struct {
	Rate  float64
	Basis FeeBasis
}

func (f FeeModel) Validate() error {
	if !(f.Rate >= 0 && f.Rate < 1) {
		return fmt.Errorf("%w: fee %v must be in [0, 1)", ErrInvalidInput, f.Rate)
	}
	if f.Basis != FeeNotional && f.Basis != FeeCurrentEquity {
		return fmt.Errorf("%w: fee basis %v", ErrInvalidInput, f.Basis)
	}
	return nil
}

// Charge returns the fee for one side of a trade.
func (f FeeModel) Charge(notional, equity float64) float64 {
	if f.Basis == FeeCurrentEquity {
		return f.Rate * equity
	}
	return f.Rate * notional
}
