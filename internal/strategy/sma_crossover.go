package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
)

const (
	NameSMACrossover = "sma_crossover"

	DefaultShortWindow = 50
	DefaultLongWindow  = 200
)

// SMACrossover is long while the short simple moving average of the close is
// above the long one.
type SMACrossover struct {
	crossover
}

// NewSMACrossover creates a crossover generator with the given windows.
func NewSMACrossover(short, long int) (*SMACrossover, error) {
	return newSMACrossover(short, long)
}

func newSMACrossover(short, long any) (*SMACrossover, error) {
	s := &SMACrossover{
		crossover: crossover{
			name:  NameSMACrossover,
			short: indicator.NewMA(),
			long:  indicator.NewMA(),
		},
	}

	if err := s.Config(short, long); err != nil {
		return nil, err
	}

	return s, nil
}

func newSMACrossoverFromParams(params map[string]any) (SignalGenerator, error) {
	return newSMACrossover(windowParams(params))
}
