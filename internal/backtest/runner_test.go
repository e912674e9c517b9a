package backtest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RunnerTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	dataSource *mocks.MockDataSource
	resultsDir string
	start      time.Time
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.dataSource = mocks.NewMockDataSource(suite.ctrl)
	suite.resultsDir = suite.T().TempDir()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// expectCatalog lets the data source report AAA, BBB and CCC with bars in any range.
func (suite *RunnerTestSuite) expectCatalog() {
	suite.dataSource.EXPECT().Symbols().Return([]string{"AAA", "BBB", "CCC"}, nil).AnyTimes()
	suite.dataSource.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(10, nil).AnyTimes()
}

func (suite *RunnerTestSuite) prices(values ...float64) types.PriceSeries {
	return types.PriceSeries{Dates: mocks.Days(suite.start, len(values)), Values: values}
}

func (suite *RunnerTestSuite) config(symbols ...string) Config {
	config := TestConfig("bars.parquet", suite.resultsDir, symbols...)
	config.Strategy = StrategyConfig{Name: strategy.NameBuyAndHold}
	config.CostBps = 0

	return config
}

func (suite *RunnerTestSuite) newRunner(config Config) *Runner {
	runner, err := NewRunner(config, suite.dataSource, logger.NewNopLogger())
	suite.Require().NoError(err)

	runner.now = func() time.Time { return suite.start }
	runner.newRunID = func() string { return "run-1" }

	return runner
}

func (suite *RunnerTestSuite) TestRunSingleSymbol() {
	config := suite.config("AAA")

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().
		ReadPrices("AAA", gomock.Any(), gomock.Any()).
		Return(suite.prices(100, 110, 121), nil)

	reports, err := suite.newRunner(config).Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(reports, 1)

	report := reports[0]
	suite.Equal("run-1", report.ID)
	suite.Equal("AAA", report.Symbol)
	suite.Equal(strategy.NameBuyAndHold, report.Strategy.Name)
	suite.Equal(3, report.TradingDays)
	suite.Equal(1, report.NumberOfTrades)
	suite.Equal(suite.start, report.StartDate)
	suite.Equal(suite.start.AddDate(0, 0, 2), report.EndDate)
	suite.Require().NotNil(report.FinalNAV)
	suite.InDelta(1.21, *report.FinalNAV, 1e-9)
	suite.Require().NotNil(report.Metrics.MaxDrawdown)
	suite.InDelta(0.0, *report.Metrics.MaxDrawdown, 1e-9)
	suite.Require().NotNil(report.Metrics.WinRate)
	suite.InDelta(100.0, *report.Metrics.WinRate, 1e-9)
	suite.Nil(report.Benchmark)

	folder := filepath.Join(suite.resultsDir, "AAA_run-1")
	suite.Equal(filepath.Join(folder, writer.EquityFileName), report.EquityFilePath)
	suite.FileExists(filepath.Join(folder, writer.StatsFileName))
	suite.FileExists(report.EquityFilePath)

	written, err := types.ReadMetricsReports(filepath.Join(folder, writer.StatsFileName))
	suite.Require().NoError(err)
	suite.Require().Len(written, 1)
	suite.Equal("AAA", written[0].Symbol)
	suite.Equal(1, written[0].NumberOfTrades)
}

func (suite *RunnerTestSuite) TestRunKeepsSymbolOrder() {
	config := suite.config("AAA", "BBB", "CCC")

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(suite.prices(100, 101, 102), nil)
	suite.dataSource.EXPECT().ReadPrices("BBB", gomock.Any(), gomock.Any()).Return(suite.prices(50, 49), nil)
	suite.dataSource.EXPECT().ReadPrices("CCC", gomock.Any(), gomock.Any()).Return(suite.prices(10, 10, 10, 10), nil)

	runner := suite.newRunner(config)

	var (
		mu   sync.Mutex
		done []string
	)

	runner.SetOnSymbolDone(func(report types.MetricsReport) {
		mu.Lock()
		defer mu.Unlock()

		done = append(done, report.Symbol)
	})

	reports, err := runner.Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(reports, 3)

	suite.Equal("AAA", reports[0].Symbol)
	suite.Equal("BBB", reports[1].Symbol)
	suite.Equal("CCC", reports[2].Symbol)
	suite.Equal(2, reports[1].TradingDays)
	suite.Equal(4, reports[2].TradingDays)
	suite.ElementsMatch([]string{"AAA", "BBB", "CCC"}, done)
}

func (suite *RunnerTestSuite) TestRunWithRiskFreeAndBenchmark() {
	config := suite.config("AAA")
	config.RiskFreePath = "rates.csv"
	config.Benchmark = true
	config.Strategy = StrategyConfig{Name: strategy.NameSMACrossover, Params: map[string]any{"short": 1, "long": 2}}

	dates := mocks.Days(suite.start, 4)

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadRiskFree("rates.csv").Return(mocks.ConstantSeries(dates, 3.65), nil)
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(suite.prices(100, 90, 95, 99), nil)

	reports, err := suite.newRunner(config).Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(reports, 1)

	report := reports[0]
	suite.Equal("rates.csv", report.RiskFreePath)
	suite.Equal(map[string]any{"short": 1, "long": 2}, report.Strategy.Params)
	suite.Require().NotNil(report.Benchmark)
	suite.Require().NotNil(report.Benchmark.MaxDrawdown)
	suite.InDelta(10.0, *report.Benchmark.MaxDrawdown, 1e-9)
}

func (suite *RunnerTestSuite) TestPassesTimeRange() {
	config := suite.config("AAA")
	config.StartTime = optional.Some(suite.start)
	config.EndTime = optional.Some(suite.start.AddDate(0, 0, 10))

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().
		ReadPrices("AAA", config.StartTime, config.EndTime).
		Return(suite.prices(100, 100), nil)

	_, err := suite.newRunner(config).Run(context.Background())
	suite.NoError(err)
}

func (suite *RunnerTestSuite) TestInitializeFailure() {
	suite.dataSource.EXPECT().Initialize("bars.parquet").
		Return(errors.New(errors.ErrCodeDataNotFound, "missing"))

	_, err := suite.newRunner(suite.config("AAA")).Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *RunnerTestSuite) TestRiskFreeFailure() {
	config := suite.config("AAA")
	config.RiskFreePath = "rates.csv"

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadRiskFree("rates.csv").
		Return(types.RiskFreeSeries{}, errors.New(errors.ErrCodeMarketDataParseFailed, "bad file"))

	_, err := suite.newRunner(config).Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

func (suite *RunnerTestSuite) TestSymbolFailureFailsRun() {
	config := suite.config("AAA", "BBB")

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).
		Return(suite.prices(100, 101), nil).AnyTimes()
	suite.dataSource.EXPECT().ReadPrices("BBB", gomock.Any(), gomock.Any()).
		Return(types.PriceSeries{}, errors.New(errors.ErrCodeDataNotFound, "no rows for BBB"))

	reports, err := suite.newRunner(config).Run(context.Background())
	suite.Require().Error(err)
	suite.Nil(reports)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *RunnerTestSuite) TestCancelledContext() {
	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.newRunner(suite.config("AAA")).Run(ctx)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *RunnerTestSuite) TestNewRunnerErrors() {
	_, err := NewRunner(Config{}, suite.dataSource, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	config := suite.config("AAA")
	config.Strategy = StrategyConfig{Name: "momentum"}

	_, err = NewRunner(config, suite.dataSource, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))

	_, err = NewRunner(suite.config("AAA"), nil, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *RunnerTestSuite) TestResultFolderName() {
	suite.Equal("BTC-USD_abc", resultFolderName("BTC/USD", "abc"))
	suite.Equal("SPY_abc", resultFolderName("SPY", "abc"))
}

func (suite *RunnerTestSuite) TestResultsAreWrittenPerRun() {
	config := suite.config("AAA")

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(suite.prices(1, 2), nil)

	_, err := suite.newRunner(config).Run(context.Background())
	suite.Require().NoError(err)

	entries, err := os.ReadDir(suite.resultsDir)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal("AAA_run-1", entries[0].Name())
}

func (suite *RunnerTestSuite) TestGeneratorFailure() {
	generator := mocks.NewMockSignalGenerator(suite.ctrl)
	generator.EXPECT().Name().Return("custom").AnyTimes()
	generator.EXPECT().Positions(gomock.Any()).
		Return(types.PositionSeries{}, errors.New(errors.ErrCodeInvalidInputType, "bad prices"))

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(suite.prices(1, 2), nil)

	runner := NewRunnerWithGenerator(suite.config("AAA"), suite.dataSource, generator, nil)

	_, err := runner.Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInputType))
}

func (suite *RunnerTestSuite) TestCustomGeneratorPositionsAreSimulated() {
	generator := mocks.NewMockSignalGenerator(suite.ctrl)
	generator.EXPECT().Name().Return("custom").AnyTimes()
	generator.EXPECT().Params().Return(map[string]any{"k": 1}).AnyTimes()

	prices := suite.prices(100, 110, 100, 100)
	generator.EXPECT().Positions(prices).
		Return(types.PositionSeries{Dates: prices.Dates, Values: []int{0, 1, 1, 0}}, nil)

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(prices, nil)

	config := suite.config("AAA")
	config.CostBps = 10

	runner := NewRunnerWithGenerator(config, suite.dataSource, generator, nil)
	runner.newRunID = func() string { return "run-2" }

	reports, err := runner.Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(reports, 1)

	suite.Equal("custom", reports[0].Strategy.Name)
	suite.Equal(2, reports[0].NumberOfTrades)
	suite.Equal(version.GetVersion(), reports[0].Version)

	nav := 1 * (1 + 0.1 - 0.0005)
	nav = nav * (1 + (100.0/110.0 - 1))
	nav = nav * (1 - 0.0005)

	suite.Require().NotNil(reports[0].FinalNAV)
	suite.InDelta(nav, *reports[0].FinalNAV, 1e-4)
}

func (suite *RunnerTestSuite) TestUnboundedGrowthIsReportedAsAbsent() {
	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadPrices("AAA", gomock.Any(), gomock.Any()).Return(suite.prices(1, 9), nil)

	var reports []types.MetricsReport
	suite.NotPanics(func() {
		var err error
		reports, err = suite.newRunner(suite.config("AAA")).Run(context.Background())
		suite.Require().NoError(err)
	})

	suite.Require().Len(reports, 1)
	suite.Nil(reports[0].Metrics.CAGR)
	suite.Require().NotNil(reports[0].FinalNAV)
	suite.Equal(9.0, *reports[0].FinalNAV)
}

func (suite *RunnerTestSuite) TestUnknownSymbolsAreRejectedBeforeRunning() {
	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.dataSource.EXPECT().Symbols().Return([]string{"AAA"}, nil)

	_, err := suite.newRunner(suite.config("AAA", "ZZZ", "YYY")).Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
	suite.Contains(err.Error(), "ZZZ, YYY")

	entries, err := os.ReadDir(suite.resultsDir)
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *RunnerTestSuite) TestSymbolsFailure() {
	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.dataSource.EXPECT().Symbols().Return(nil, errors.New(errors.ErrCodeQueryFailed, "query failed"))

	_, err := suite.newRunner(suite.config("AAA")).Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
}

func (suite *RunnerTestSuite) TestNoBarsInRange() {
	config := suite.config("AAA")
	config.StartTime = optional.Some(suite.start.AddDate(5, 0, 0))

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.dataSource.EXPECT().Symbols().Return([]string{"AAA"}, nil)
	suite.dataSource.EXPECT().Count("AAA", config.StartTime, config.EndTime).Return(0, nil)

	_, err := suite.newRunner(config).Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *RunnerTestSuite) TestRiskFreeOutsideWindowIsIgnored() {
	config := suite.config("AAA")
	config.RiskFreePath = "rates.csv"
	config.StartTime = optional.Some(suite.start)
	config.EndTime = optional.Some(suite.start.AddDate(0, 0, 2))

	// rates cover a wider span than the prices
	rates := mocks.ConstantSeries(mocks.Days(suite.start.AddDate(0, 0, -30), 60), 3.65)

	suite.dataSource.EXPECT().Initialize("bars.parquet").Return(nil)
	suite.expectCatalog()
	suite.dataSource.EXPECT().ReadRiskFree("rates.csv").Return(rates, nil)
	suite.dataSource.EXPECT().ReadPrices("AAA", config.StartTime, config.EndTime).Return(suite.prices(100, 110, 121), nil)

	reports, err := suite.newRunner(config).Run(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(reports, 1)
	suite.Equal(3, reports[0].TradingDays)
	suite.Equal(suite.start, reports[0].StartDate)
}
