package types

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// StrategyInfo contains metadata about the signal generator that produced the positions.
type StrategyInfo struct {
	// Name is the registered generator name (e.g., "sma_crossover").
	Name string `yaml:"name" json:"name"`
	// Params are the generator parameters as configured.
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ReportMetrics is the serialized form of a MetricsRecord. Absent metrics are
// written as null.
type ReportMetrics struct {
	CAGR        *float64 `yaml:"cagr_pct"`
	Sharpe      *float64 `yaml:"sharpe_ratio"`
	MaxDrawdown *float64 `yaml:"max_drawdown_pct"`
	WinRate     *float64 `yaml:"win_rate_pct"`
	Turnover    *float64 `yaml:"turnover_pct"`
}

type MetricsReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Version of the backtester that produced the report.
	Version string `yaml:"version"`
	// Symbol of the simulated asset.
	Symbol string `yaml:"symbol"`
	// Strategy contains metadata about the signal generator.
	Strategy StrategyInfo `yaml:"strategy"`
	// CostBps is the round-trip transaction cost in basis points.
	CostBps float64 `yaml:"cost_bps"`
	// StartDate is the first aligned date.
	StartDate time.Time `yaml:"start_date"`
	// EndDate is the last aligned date.
	EndDate time.Time `yaml:"end_date"`
	// TradingDays is the number of aligned dates.
	TradingDays int `yaml:"trading_days"`
	// NumberOfTrades counts position changes.
	NumberOfTrades int `yaml:"number_of_trades"`
	// FinalNAV is the last value of the equity curve.
	FinalNAV *float64 `yaml:"final_nav"`
	// Metrics are the performance statistics.
	Metrics ReportMetrics `yaml:"metrics"`
	// Benchmark holds buy-and-hold metrics over the same dates, when enabled.
	Benchmark *ReportMetrics `yaml:"benchmark,omitempty"`
	// EquityFilePath is the path to the equity parquet file.
	EquityFilePath string `yaml:"equity_file_path"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path"`
	// RiskFreePath is the risk-free rate file, empty when none was used.
	RiskFreePath string `yaml:"risk_free_path,omitempty"`
}

// NewReportMetrics rounds every present metric to the given number of decimal places.
func NewReportMetrics(record MetricsRecord, precision int32) ReportMetrics {
	return ReportMetrics{
		CAGR:        RoundOption(record.CAGR, precision),
		Sharpe:      RoundOption(record.Sharpe, precision),
		MaxDrawdown: RoundOption(record.MaxDrawdown, precision),
		WinRate:     RoundOption(record.WinRate, precision),
		Turnover:    RoundOption(record.Turnover, precision),
	}
}

// RoundOption rounds a present value half away from zero. None and
// non-finite values become nil.
func RoundOption(value optional.Option[float64], precision int32) *float64 {
	if value.IsNone() {
		return nil
	}

	if v := value.Unwrap(); math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	rounded := RoundToPrecision(value.Unwrap(), precision)

	return &rounded
}

// RoundToPrecision rounds v to precision decimal places using decimal arithmetic.
func RoundToPrecision(v float64, precision int32) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(precision).Float64()

	return rounded
}

func WriteMetricsReports(path string, reports []MetricsReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics reports to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics reports to file: %w", err)
	}

	return nil
}

// ReadMetricsReports reads a stats file written by WriteMetricsReports.
func ReadMetricsReports(path string) ([]MetricsReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics reports: %w", err)
	}

	var reports []MetricsReport
	if err := yaml.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics reports: %w", err)
	}

	return reports, nil
}
