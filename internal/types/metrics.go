package types

import (
	"github.com/moznion/go-optional"
)

// MetricsRecord holds the five performance statistics of a run. A None value
// means the statistic could not be computed from the data.
type MetricsRecord struct {
	// CAGR is the compound annual growth rate in percent.
	CAGR optional.Option[float64]
	// Sharpe is the annualized (sqrt 252) log-return Sharpe ratio with zero risk-free rate.
	Sharpe optional.Option[float64]
	// MaxDrawdown is the largest peak-to-trough decline in percent, as a positive number.
	MaxDrawdown optional.Option[float64]
	// WinRate is the percentage of days with a strictly positive simple return.
	WinRate optional.Option[float64]
	// Turnover is the percentage of days on which the position changed.
	Turnover optional.Option[float64]
}

// EmptyMetricsRecord returns a record with every metric absent.
func EmptyMetricsRecord() MetricsRecord {
	return MetricsRecord{
		CAGR:        optional.None[float64](),
		Sharpe:      optional.None[float64](),
		MaxDrawdown: optional.None[float64](),
		WinRate:     optional.None[float64](),
		Turnover:    optional.None[float64](),
	}
}
