package simulation

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Aligned holds the inputs of a simulation restricted to their common dates.
type Aligned struct {
	Prices    types.PriceSeries
	Positions types.PositionSeries
	RiskFree  optional.Option[types.RiskFreeSeries]
}

// Align restricts prices, positions and the optional risk-free series to the
// intersection of their date indices. Dates missing from any input are dropped.
func Align(prices types.PriceSeries, positions types.PositionSeries, riskFree optional.Option[types.RiskFreeSeries]) Aligned {
	indexes := [][]time.Time{prices.Dates, positions.Dates}
	if riskFree.IsSome() {
		indexes = append(indexes, riskFree.Unwrap().Dates)
	}

	common := intersect(indexes...)

	aligned := Aligned{
		Prices:    prices.Restrict(common),
		Positions: positions.Restrict(common),
		RiskFree:  optional.None[types.RiskFreeSeries](),
	}

	if riskFree.IsSome() {
		aligned.RiskFree = optional.Some(riskFree.Unwrap().Restrict(common))
	}

	return aligned
}

// intersect returns the dates of the first index that appear in every other
// index, preserving the order of the first.
func intersect(indexes ...[]time.Time) []time.Time {
	if len(indexes) == 0 {
		return []time.Time{}
	}

	sets := make([]map[time.Time]struct{}, len(indexes)-1)
	for i, index := range indexes[1:] {
		set := make(map[time.Time]struct{}, len(index))
		for _, d := range index {
			set[d.UTC()] = struct{}{}
		}

		sets[i] = set
	}

	common := make([]time.Time, 0, len(indexes[0]))

	for _, d := range indexes[0] {
		key := d.UTC()
		inAll := true

		for _, set := range sets {
			if _, ok := set[key]; !ok {
				inAll = false

				break
			}
		}

		if inAll {
			common = append(common, d)
		}
	}

	return common
}
