// Package strategy produces lagged long/flat position series from prices.
//
// Every generator shifts its raw signal forward by one day, so the position at
// date t only uses prices strictly before t.
package strategy

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SignalGenerator turns a price series into a lagged 0/1 position series
// indexed like the prices.
type SignalGenerator interface {
	// Name returns the registered name of the generator.
	Name() string
	// Params returns the generator parameters, used for reporting.
	Params() map[string]any
	// Positions computes the position held during each date of prices.
	Positions(prices types.PriceSeries) (types.PositionSeries, error)
}

// Factory builds a generator from configuration parameters.
type Factory func(params map[string]any) (SignalGenerator, error)

// Registry maps generator names to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry with the built-in generators registered.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		mu:        sync.RWMutex{},
	}

	_ = r.Register(NameSMACrossover, newSMACrossoverFromParams)
	_ = r.Register(NameEMACrossover, newEMACrossoverFromParams)
	_ = r.Register(NameBuyAndHold, func(map[string]any) (SignalGenerator, error) {
		return NewBuyAndHold(), nil
	})

	return r
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "signal generator %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// New builds the generator registered under name.
func (r *Registry) New(name string, params map[string]any) (SignalGenerator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy,
			"signal generator %s not found, available: %s", name, strings.Join(r.List(), ", "))
	}

	return factory(params)
}

// List returns the registered generator names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var defaultRegistry = NewRegistry()

// NewSignalGenerator builds a built-in generator by name.
func NewSignalGenerator(name string, params map[string]any) (SignalGenerator, error) {
	return defaultRegistry.New(name, params)
}

// Names returns the built-in generator names in sorted order.
func Names() []string {
	return defaultRegistry.List()
}

// lag shifts a raw signal forward one day, filling the first day with 0.
// The returned series is indexed like prices.
func lag(prices types.PriceSeries, raw []int) types.PositionSeries {
	values := make([]int, len(raw))
	for i := 1; i < len(raw); i++ {
		values[i] = raw[i-1]
	}

	return types.PositionSeries{
		Dates:  append([]time.Time{}, prices.Dates...),
		Values: values,
	}
}

// checkPrices validates the shape of prices for generators.
func checkPrices(prices types.PriceSeries) error {
	if err := prices.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInputType, "invalid price series", err)
	}

	return nil
}
