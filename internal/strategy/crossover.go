package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// movingAverage is a rolling average computed over a whole value column.
type movingAverage interface {
	Config(params ...any) error
	Calculate(values []float64) []float64
	Period() int
}

// crossover is long while the short average of the close is above the long one.
type crossover struct {
	name  string
	short movingAverage
	long  movingAverage
}

// Name returns the registered name.
func (c *crossover) Name() string {
	return c.name
}

// Params returns the configured windows.
func (c *crossover) Params() map[string]any {
	return map[string]any{
		"short": c.short.Period(),
		"long":  c.long.Period(),
	}
}

// Config sets the windows. Expected parameters: short (int), long (int).
func (c *crossover) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: short (int), long (int)")
	}

	if err := c.short.Config(params[0]); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid short window", err)
	}

	if err := c.long.Config(params[1]); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid long window", err)
	}

	return nil
}

// Positions returns 1 on the day after short > long, else 0.
// Days where either average is undefined count as 0.
func (c *crossover) Positions(prices types.PriceSeries) (types.PositionSeries, error) {
	if err := checkPrices(prices); err != nil {
		return types.PositionSeries{}, err
	}

	if prices.IsEmpty() {
		return types.EmptySeries[int](), nil
	}

	shortMA := c.short.Calculate(prices.Values)
	longMA := c.long.Calculate(prices.Values)

	raw := make([]int, prices.Len())
	for i := range raw {
		// comparisons with NaN are false
		if shortMA[i] > longMA[i] {
			raw[i] = 1
		}
	}

	return lag(prices, raw), nil
}

// windowParams reads short and long from params, falling back to the defaults.
func windowParams(params map[string]any) (any, any) {
	var short any = DefaultShortWindow
	if v, ok := params["short"]; ok {
		short = v
	}

	var long any = DefaultLongWindow
	if v, ok := params["long"]; ok {
		long = v
	}

	return short, long
}
