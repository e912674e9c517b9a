// Package metrics computes performance statistics from a simulation result.
//
// Degenerate data never produces an error: a statistic that cannot be computed
// is returned as optional.None. Only a malformed result is rejected.
package metrics

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365.25
	epsilon            = 1e-9
	minYears           = 1e-6
)

// Summarize computes CAGR, Sharpe ratio, max drawdown, win rate and turnover.
func Summarize(result types.SimulationResult) (types.MetricsRecord, error) {
	if err := result.Validate(); err != nil {
		return types.EmptyMetricsRecord(), errors.Wrap(errors.ErrCodeInvalidInputType, "cannot summarize malformed simulation result", err)
	}

	record := types.EmptyMetricsRecord()
	record.Turnover = Turnover(result.Trades)

	nav := result.EquityCurve
	if nav.Len() < 2 {
		return record, nil
	}

	record.CAGR = CAGR(nav)
	record.Sharpe = Sharpe(nav)
	record.MaxDrawdown = MaxDrawdown(nav)
	record.WinRate = WinRate(nav)

	return record, nil
}

// CAGR returns the compound annual growth rate in percent over the calendar
// span of the curve, using 365.25 days per year.
func CAGR(nav types.Series[float64]) optional.Option[float64] {
	firstDate, first, ok := nav.First()
	if !ok || nav.Len() < 2 {
		return optional.None[float64]()
	}

	lastDate, last, _ := nav.Last()

	// whole elapsed days, like a calendar day count
	years := math.Floor(lastDate.Sub(firstDate).Hours()/24) / daysPerYear
	if years <= minYears || math.IsNaN(first) || math.IsNaN(last) || first == 0 {
		return optional.None[float64]()
	}

	return defined((math.Pow(last/first, 1/years) - 1) * 100)
}

// Sharpe returns sqrt(252) * mean / stddev of the daily log returns.
// A perfectly flat curve has ratio 0. A non-zero mean with near-zero
// deviation has no defined ratio.
func Sharpe(nav types.Series[float64]) optional.Option[float64] {
	logReturns := returns(nav, func(prev, cur float64) float64 { return math.Log(cur / prev) })
	if len(logReturns) < 2 {
		return optional.None[float64]()
	}

	mean, std := stat.MeanStdDev(logReturns, nil)

	switch {
	case std > epsilon:
		return defined(math.Sqrt(tradingDaysPerYear) * mean / std)
	case math.Abs(mean) < epsilon && math.Abs(std) < epsilon:
		return optional.Some(0.0)
	default:
		return optional.None[float64]()
	}
}

// MaxDrawdown returns the largest decline from the running peak, in percent,
// as a positive number.
func MaxDrawdown(nav types.Series[float64]) optional.Option[float64] {
	worst := math.NaN()

	walkDrawdown(nav, func(_ int, dd float64) {
		if math.IsNaN(worst) || dd < worst {
			worst = dd
		}
	})

	if math.IsNaN(worst) {
		return optional.None[float64]()
	}

	return optional.Some(math.Abs(worst) * 100)
}

// Drawdown returns NAV / running peak - 1 for every day, 0 where it cannot be computed.
func Drawdown(nav types.Series[float64]) types.Series[float64] {
	out := types.Series[float64]{
		Dates:  append(make([]time.Time, 0, nav.Len()), nav.Dates...),
		Values: make([]float64, nav.Len()),
	}

	walkDrawdown(nav, func(i int, dd float64) {
		out.Values[i] = dd
	})

	return out
}

// WinRate returns the percentage of strictly positive daily simple returns.
func WinRate(nav types.Series[float64]) optional.Option[float64] {
	simple := returns(nav, func(prev, cur float64) float64 { return cur/prev - 1 })
	if len(simple) == 0 {
		return optional.None[float64]()
	}

	wins := 0

	for _, r := range simple {
		if r > 0 {
			wins++
		}
	}

	return optional.Some(float64(wins) / float64(len(simple)) * 100)
}

// Turnover returns the percentage of days with a position change.
func Turnover(trades types.Series[int]) optional.Option[float64] {
	if trades.IsEmpty() {
		return optional.None[float64]()
	}

	events := 0
	for _, t := range trades.Values {
		if t < 0 {
			events -= t
		} else {
			events += t
		}
	}

	return optional.Some(float64(events) / float64(trades.Len()) * 100)
}

// returns applies fn to each consecutive pair of NAV values and drops
// undefined results.
func returns(nav types.Series[float64], fn func(prev, cur float64) float64) []float64 {
	out := make([]float64, 0, nav.Len())

	for i := 1; i < nav.Len(); i++ {
		r := fn(nav.Values[i-1], nav.Values[i])
		if math.IsNaN(r) {
			continue
		}

		out = append(out, r)
	}

	return out
}

// walkDrawdown calls visit for every day where the running peak is defined
// and positive and NAV itself is defined. Undefined NAV values do not reset
// the running peak.
func walkDrawdown(nav types.Series[float64], visit func(i int, drawdown float64)) {
	peak := math.NaN()

	for i, v := range nav.Values {
		if math.IsNaN(v) {
			continue
		}

		if math.IsNaN(peak) || v > peak {
			peak = v
		}

		if peak > epsilon {
			visit(i, v/peak-1)
		}
	}
}

// defined treats NaN and ±Inf as absent.
func defined(v float64) optional.Option[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return optional.None[float64]()
	}

	return optional.Some(v)
}
