// Package datasource loads daily prices and risk-free rates for the backtest
// runner.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type DataSource interface {
	// Initialize exposes the market data file (parquet or csv) as the market_data view
	Initialize(path string) error
	// ReadPrices returns one close per calendar day for symbol, ordered by date
	ReadPrices(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (types.PriceSeries, error)
	// ReadRiskFree loads annualized risk-free rates (percent) from a csv file,
	// expanded to daily frequency with forward-fill
	ReadRiskFree(path string) (types.RiskFreeSeries, error)
	// Count returns the number of bars for symbol in the range
	Count(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbols returns the distinct symbols in the data source
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}
