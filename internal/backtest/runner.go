// Package backtest runs the signal, simulation and metrics pipeline for every
// configured symbol and writes the results.
package backtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/metrics"
	"github.com/rxtech-lab/argo-backtest/internal/simulation"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OnSymbolDoneCallback is called after a symbol's results have been written.
type OnSymbolDoneCallback func(report types.MetricsReport)

type Runner struct {
	config     Config
	dataSource datasource.DataSource
	generator  strategy.SignalGenerator
	benchmark  optional.Option[strategy.SignalGenerator]
	log        *logger.Logger
	onDone     optional.Option[OnSymbolDoneCallback]
	now        func() time.Time
	newRunID   func() string
}

// NewRunner validates config and resolves its signal generator.
func NewRunner(config Config, dataSource datasource.DataSource, log *logger.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if dataSource == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is required")
	}

	generator, err := strategy.NewSignalGenerator(config.Strategy.Name, config.Strategy.Params)
	if err != nil {
		return nil, err
	}

	return NewRunnerWithGenerator(config, dataSource, generator, log), nil
}

// NewRunnerWithGenerator creates a runner with an explicit signal generator.
// The configuration is used as is.
func NewRunnerWithGenerator(config Config, dataSource datasource.DataSource, generator strategy.SignalGenerator, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	benchmark := optional.None[strategy.SignalGenerator]()
	if config.Benchmark {
		benchmark = optional.Some[strategy.SignalGenerator](strategy.NewBuyAndHold())
	}

	return &Runner{
		config:     config,
		dataSource: dataSource,
		generator:  generator,
		benchmark:  benchmark,
		log:        log,
		onDone:     optional.None[OnSymbolDoneCallback](),
		now:        time.Now,
		newRunID:   func() string { return uuid.New().String() },
	}
}

// SetOnSymbolDone registers a callback invoked once per finished symbol.
func (r *Runner) SetOnSymbolDone(callback OnSymbolDoneCallback) {
	r.onDone = optional.Some(callback)
}

// Run backtests every symbol concurrently and returns one report per symbol in
// configuration order. The first failing symbol cancels the others.
func (r *Runner) Run(ctx context.Context) ([]types.MetricsReport, error) {
	if err := r.dataSource.Initialize(r.config.DataPath); err != nil {
		r.log.Error("Failed to initialize data source", zap.String("path", r.config.DataPath), zap.Error(err))

		return nil, err
	}

	if err := r.checkSymbols(); err != nil {
		r.log.Error("Configured symbols are not in the data file", zap.String("path", r.config.DataPath), zap.Error(err))

		return nil, err
	}

	riskFree := optional.None[types.RiskFreeSeries]()

	if r.config.RiskFreePath != "" {
		rf, err := r.dataSource.ReadRiskFree(r.config.RiskFreePath)
		if err != nil {
			r.log.Error("Failed to load risk-free rates", zap.String("path", r.config.RiskFreePath), zap.Error(err))

			return nil, err
		}

		// rates outside the backtest window never align with a price
		rf = rf.Slice(r.config.StartTime.TakeOr(time.Time{}), r.config.EndTime.TakeOr(time.Time{}))
		r.log.Debug("Loaded risk-free rates", zap.Int("days", rf.Len()))

		riskFree = optional.Some(rf)
	}

	runID := r.newRunID()
	timestamp := r.now()

	r.log.Info("Starting backtest",
		zap.String("run_id", runID),
		zap.Strings("symbols", r.config.Symbols),
		zap.String("strategy", r.generator.Name()),
		zap.Float64("cost_bps", r.config.CostBps),
	)

	reports := make([]types.MetricsReport, len(r.config.Symbols))
	g, gctx := errgroup.WithContext(ctx)

	for i, symbol := range r.config.Symbols {
		g.Go(func() error {
			report, err := r.runSymbol(gctx, runID, timestamp, symbol, riskFree)
			if err != nil {
				r.log.ForSymbol(symbol).Error("Backtest failed", zap.Error(err))

				return err
			}

			reports[i] = report

			if r.onDone.IsSome() {
				r.onDone.Unwrap()(report)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.log.Info("Backtest finished", zap.String("run_id", runID), zap.Int("symbols", len(reports)))

	return reports, nil
}

func (r *Runner) runSymbol(ctx context.Context, runID string, timestamp time.Time, symbol string, riskFree optional.Option[types.RiskFreeSeries]) (types.MetricsReport, error) {
	log := r.log.ForSymbol(symbol)

	if err := ctx.Err(); err != nil {
		return types.MetricsReport{}, err
	}

	bars, err := r.dataSource.Count(symbol, r.config.StartTime, r.config.EndTime)
	if err != nil {
		return types.MetricsReport{}, err
	}

	if bars == 0 {
		return types.MetricsReport{}, errors.Newf(errors.ErrCodeDataNotFound, "no bars for %s in the configured time range", symbol)
	}

	prices, err := r.dataSource.ReadPrices(symbol, r.config.StartTime, r.config.EndTime)
	if err != nil {
		return types.MetricsReport{}, err
	}

	log.Debug("Loaded prices", zap.Int("bars", bars), zap.Int("days", prices.Len()))

	result, record, err := r.evaluate(r.generator, prices, riskFree)
	if err != nil {
		return types.MetricsReport{}, err
	}

	if err := ctx.Err(); err != nil {
		return types.MetricsReport{}, err
	}

	report := r.newReport(runID, timestamp, symbol, result, record)

	if r.benchmark.IsSome() {
		_, benchmarkRecord, err := r.evaluate(r.benchmark.Unwrap(), prices, riskFree)
		if err != nil {
			return types.MetricsReport{}, err
		}

		benchmarkMetrics := types.NewReportMetrics(benchmarkRecord, r.config.DecimalPrecision)
		report.Benchmark = &benchmarkMetrics
	}

	folder := filepath.Join(r.config.ResultsFolder, resultFolderName(symbol, runID))

	report, err = writer.WriteResults(folder, report, result, metrics.Drawdown(result.EquityCurve))
	if err != nil {
		return types.MetricsReport{}, err
	}

	log.Info("Backtest completed",
		zap.String("result", folder),
		zap.Int("trading_days", report.TradingDays),
		zap.Int("trades", report.NumberOfTrades),
	)

	return report, nil
}

// checkSymbols rejects configured symbols that the data file does not contain.
func (r *Runner) checkSymbols() error {
	available, err := r.dataSource.Symbols()
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(available))
	for _, symbol := range available {
		known[symbol] = struct{}{}
	}

	var missing []string

	for _, symbol := range r.config.Symbols {
		if _, ok := known[symbol]; !ok {
			missing = append(missing, symbol)
		}
	}

	if len(missing) > 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "symbols not found in data: %s", strings.Join(missing, ", "))
	}

	return nil
}

// evaluate runs one generator through the simulation and the metrics.
func (r *Runner) evaluate(generator strategy.SignalGenerator, prices types.PriceSeries, riskFree optional.Option[types.RiskFreeSeries]) (types.SimulationResult, types.MetricsRecord, error) {
	positions, err := generator.Positions(prices)
	if err != nil {
		return types.SimulationResult{}, types.MetricsRecord{}, err
	}

	result, err := simulation.Simulate(prices, positions, riskFree, r.config.CostBps)
	if err != nil {
		return types.SimulationResult{}, types.MetricsRecord{}, err
	}

	record, err := metrics.Summarize(result)
	if err != nil {
		return types.SimulationResult{}, types.MetricsRecord{}, err
	}

	return result, record, nil
}

func (r *Runner) newReport(runID string, timestamp time.Time, symbol string, result types.SimulationResult, record types.MetricsRecord) types.MetricsReport {
	report := types.MetricsReport{
		ID:        runID,
		Timestamp: timestamp,
		Version:   version.GetVersion(),
		Symbol:    symbol,
		Strategy: types.StrategyInfo{
			Name:   r.generator.Name(),
			Params: r.generator.Params(),
		},
		CostBps:        r.config.CostBps,
		TradingDays:    result.Len(),
		NumberOfTrades: countTrades(result.Trades),
		Metrics:        types.NewReportMetrics(record, r.config.DecimalPrecision),
		DataPath:       r.config.DataPath,
		RiskFreePath:   r.config.RiskFreePath,
	}

	if first, _, ok := result.EquityCurve.First(); ok {
		report.StartDate = first
	}

	if last, nav, ok := result.EquityCurve.Last(); ok {
		report.EndDate = last
		report.FinalNAV = types.RoundOption(optional.Some(nav), r.config.DecimalPrecision)
	}

	return report
}

func countTrades(trades types.Series[int]) int {
	count := 0

	for _, t := range trades.Values {
		if t != 0 {
			count++
		}
	}

	return count
}

func resultFolderName(symbol string, runID string) string {
	safe := strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(symbol)

	return fmt.Sprintf("%s_%s", safe, runID)
}
