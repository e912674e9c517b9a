package writer

import (
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	StatsFileName  = "stats.yaml"
	EquityFileName = "equity.parquet"
)

// WriteResults writes stats.yaml and equity.parquet into folder and returns
// the report with EquityFilePath set.
func WriteResults(folder string, report types.MetricsReport, result types.SimulationResult, drawdown types.Series[float64]) (types.MetricsReport, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return report, errors.Wrapf(errors.ErrCodeBacktestNoResultsDir, err, "failed to create result folder %s", folder)
	}

	equityWriter := NewEquityWriter(filepath.Join(folder, EquityFileName))
	if err := equityWriter.Initialize(); err != nil {
		return report, err
	}
	defer equityWriter.Close()

	if err := equityWriter.Write(result, drawdown); err != nil {
		return report, err
	}

	report.EquityFilePath = equityWriter.GetOutputPath()

	if err := types.WriteMetricsReports(filepath.Join(folder, StatsFileName), []types.MetricsReport{report}); err != nil {
		return report, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write stats", err)
	}

	return report, nil
}
