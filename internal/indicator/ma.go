package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MA implements a rolling Simple Moving Average over a daily value column.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() *MA {
	return &MA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() string {
	return "ma"
}

// Period returns the configured window length.
func (m *MA) Period() int {
	return m.period
}

// Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := toPeriod(params[0])
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// Calculate returns the rolling mean for every position in values. A position
// whose window is incomplete, or contains NaN, is NaN.
func (m *MA) Calculate(values []float64) []float64 {
	out := make([]float64, len(values))

	for i := range values {
		if i+1 < m.period {
			out[i] = math.NaN()

			continue
		}

		sum := 0.0
		for _, v := range values[i+1-m.period : i+1] {
			sum += v
		}

		// NaN propagates through the sum
		out[i] = sum / float64(m.period)
	}

	return out
}

func toPeriod(param any) (int, error) {
	var period int

	switch p := param.(type) {
	case int:
		period = p
	case float64:
		period = int(p)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for period parameter, expected int or float, got %T", param)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", period)
	}

	return period, nil
}
