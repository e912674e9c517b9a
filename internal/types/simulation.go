package types

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SimulationResult is the output of one simulation run. All three series share
// the aligned date index.
type SimulationResult struct {
	// EquityCurve is the daily NAV, starting at exactly 1.0.
	EquityCurve Series[float64]
	// Positions echoes the aligned input positions (0 or 1).
	Positions PositionSeries
	// Trades is the day-over-day position change in {-1, 0, +1}; the first entry is 0.
	Trades Series[int]
}

// EmptySimulationResult returns a result whose three series are empty.
func EmptySimulationResult() SimulationResult {
	return SimulationResult{
		EquityCurve: EmptySeries[float64](),
		Positions:   EmptySeries[int](),
		Trades:      EmptySeries[int](),
	}
}

// Len returns the number of simulated days.
func (r SimulationResult) Len() int {
	return r.EquityCurve.Len()
}

// Validate checks that every series is well formed and that the equity curve
// and trades share one index. Positions may be omitted by callers that only
// carry NAV and trades.
func (r SimulationResult) Validate() error {
	if err := r.EquityCurve.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "equity curve is not a valid series", err)
	}

	if err := r.Trades.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "trades is not a valid series", err)
	}

	if err := r.Positions.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "positions is not a valid series", err)
	}

	if !sameIndex(r.EquityCurve, r.Trades) {
		return errors.New(errors.ErrCodeInvalidInputType, "equity curve and trades must share one date index")
	}

	if !r.Positions.IsEmpty() && !sameIndex(r.EquityCurve, r.Positions) {
		return errors.New(errors.ErrCodeInvalidInputType, "equity curve and positions must share one date index")
	}

	return nil
}

func sameIndex[A, B Number](a Series[A], b Series[B]) bool {
	if len(a.Dates) != len(b.Dates) {
		return false
	}

	for i := range a.Dates {
		if !a.Dates[i].Equal(b.Dates[i]) {
			return false
		}
	}

	return true
}
