package backtest

import "errors"

var (
	// ErrInvalidInput covers feeds, parameters and files the engine refuses
	// to run on: an empty or malformed feed, non-positive prices, missing
	// columns, a fee outside [0, 1) or a non-positive capital.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStrategyContract is returned when a strategy breaks its contract,
	// for example by returning a signal other than buy, sell or hold.
	ErrStrategyContract = errors.New("strategy contract violation")
)
