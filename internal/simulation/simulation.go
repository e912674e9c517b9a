// Package simulation turns a long/flat position series into a daily equity curve.
//
// Positions are expected to be lagged by the caller: the value at date t is the
// position held during day t. Every call is a pure function of its inputs.
package simulation

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DefaultCostBps is the default round-trip transaction cost in basis points.
const DefaultCostBps = 10.0

const (
	bpsPerUnit      = 10000.0
	daysPerYearRate = 365.0
)

// Simulate builds the equity curve of holding positions against prices.
//
// costBps is a round-trip cost; each position change is charged half of it.
// When riskFree is present, flat days accrue riskFree/100/365. The first aligned
// day starts at NAV 1.0 with no trade and no cost. An empty aligned index yields
// an empty result, not an error.
func Simulate(
	prices types.PriceSeries,
	positions types.PositionSeries,
	riskFree optional.Option[types.RiskFreeSeries],
	costBps float64,
) (types.SimulationResult, error) {
	if err := validateInputs(prices, positions, riskFree); err != nil {
		return types.SimulationResult{}, err
	}

	aligned := Align(prices, positions, riskFree)
	if aligned.Prices.IsEmpty() {
		return types.EmptySimulationResult(), nil
	}

	n := aligned.Prices.Len()
	price := aligned.Prices.Values
	held := aligned.Positions.Values

	var rf []float64
	if aligned.RiskFree.IsSome() {
		rf = aligned.RiskFree.Unwrap().Values
	}

	oneWayCost := (costBps / 2.0) / bpsPerUnit

	equity := make([]float64, n)
	trades := make([]int, n)

	equity[0] = 1.0
	raw := 1.0
	lastDefined := 1.0

	for t := 1; t < n; t++ {
		trade := held[t] - held[t-1]
		trades[t] = trade

		cost := math.Abs(float64(trade)) * oneWayCost
		if math.IsNaN(cost) {
			cost = 0
		}

		active := float64(held[t]) * (price[t]/price[t-1] - 1)
		if math.IsNaN(active) {
			active = 0
		}

		idle := 0.0
		if rf != nil {
			idle = float64(1-held[t]) * (rf[t] / 100.0 / daysPerYearRate)
			if math.IsNaN(idle) {
				idle = 0
			}
		}

		net := active + idle - cost

		// the recurrence runs on the unfilled value; only the output is forward-filled
		raw = raw * (1 + net)
		if !math.IsNaN(raw) {
			lastDefined = raw
		}

		equity[t] = lastDefined
	}

	return types.SimulationResult{
		EquityCurve: types.Series[float64]{Dates: copyDates(aligned.Prices.Dates), Values: equity},
		Positions:   types.Series[int]{Dates: copyDates(aligned.Prices.Dates), Values: append([]int{}, held...)},
		Trades:      types.Series[int]{Dates: copyDates(aligned.Prices.Dates), Values: trades},
	}, nil
}

func validateInputs(prices types.PriceSeries, positions types.PositionSeries, riskFree optional.Option[types.RiskFreeSeries]) error {
	if err := prices.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "prices must be a date-indexed series", err)
	}

	if err := positions.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "positions must be a date-indexed series", err)
	}

	if riskFree.IsSome() {
		if err := riskFree.Unwrap().Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInputType, "risk-free rates must be a date-indexed series", err)
		}
	}

	for i, p := range positions.Values {
		if p != 0 && p != 1 {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"position on %s must be 0 or 1, got %d", positions.Dates[i].Format(time.DateOnly), p)
		}
	}

	return nil
}

func copyDates(dates []time.Time) []time.Time {
	return append([]time.Time{}, dates...)
}
