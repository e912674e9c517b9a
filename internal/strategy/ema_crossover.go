package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
)

const NameEMACrossover = "ema_crossover"

// EMACrossover is long while the short exponential moving average of the
// close is above the long one. It reacts faster than SMACrossover with the
// same windows.
type EMACrossover struct {
	crossover
}

func NewEMACrossover(short, long int) (*EMACrossover, error) {
	return newEMACrossover(short, long)
}

func newEMACrossover(short, long any) (*EMACrossover, error) {
	e := &EMACrossover{
		crossover: crossover{
			name:  NameEMACrossover,
			short: indicator.NewEMA(),
			long:  indicator.NewEMA(),
		},
	}

	if err := e.Config(short, long); err != nil {
		return nil, err
	}

	return e, nil
}

func newEMACrossoverFromParams(params map[string]any) (SignalGenerator, error) {
	return newEMACrossover(windowParams(params))
}
