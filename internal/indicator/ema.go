package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// EMA implements an Exponential Moving Average over a daily value column.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() *EMA {
	return &EMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() string {
	return "ema"
}

// Period returns the configured span.
func (e *EMA) Period() int {
	return e.period
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := toPeriod(params[0])
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Calculate returns the EMA for every position in values. The first defined
// value, at index period-1, is the simple average of the first period values;
// after that EMA = value*alpha + previous*(1-alpha) with alpha = 2/(period+1).
// Earlier positions are NaN, and a NaN input makes every later value NaN.
func (e *EMA) Calculate(values []float64) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / float64(e.period+1)
	ema := math.NaN()

	for i, v := range values {
		switch {
		case i+1 < e.period:
			out[i] = math.NaN()

			continue
		case i+1 == e.period:
			sum := 0.0
			for _, w := range values[:e.period] {
				sum += w
			}

			ema = sum / float64(e.period)
		default:
			ema = v*alpha + ema*(1-alpha)
		}

		out[i] = ema
	}

	return out
}
