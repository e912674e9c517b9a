// Package writer persists the outputs of a backtest run.
package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// EquityWriter writes the daily equity curve, drawdown, positions and trades
// of one simulation to a parquet file.
type EquityWriter struct {
	db         *sql.DB
	outputPath string
	mu         sync.Mutex
}

// NewEquityWriter creates a new EquityWriter.
// outputPath is the full path to the parquet file.
func NewEquityWriter(outputPath string) *EquityWriter {
	return &EquityWriter{
		db:         nil,
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize creates the output directory and the in-memory equity table.
func (w *EquityWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create results directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to open DuckDB connection", err)
	}

	w.db = db

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			date TIMESTAMP,
			nav DOUBLE,
			drawdown DOUBLE,
			position INTEGER,
			trade INTEGER
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create equity table", err)
	}

	return nil
}

// Write inserts every simulated day and exports the table to parquet.
// drawdown may be shorter than the equity curve; missing values are stored as NULL.
func (w *EquityWriter) Write(result types.SimulationResult, drawdown types.Series[float64]) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeBacktestWriteFailed, "writer not initialized")
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to begin transaction", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO equity (date, nav, drawdown, position, trade) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to prepare statement", err)
	}
	defer stmt.Close()

	for i, date := range result.EquityCurve.Dates {
		_, err := stmt.Exec(
			date,
			result.EquityCurve.Values[i],
			valueAt(drawdown.Values, i),
			valueAt(result.Positions.Values, i),
			valueAt(result.Trades.Values, i),
		)
		if err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert equity row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to commit equity rows", err)
	}

	_, err = w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM equity ORDER BY date ASC)
		TO '%s' (FORMAT PARQUET)
	`, strings.ReplaceAll(w.outputPath, "'", "''")))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export to parquet", err)
	}

	return nil
}

// GetOutputPath returns the parquet file path.
func (w *EquityWriter) GetOutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *EquityWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}

		w.db = nil
	}

	return nil
}

func valueAt[T types.Number](values []T, i int) any {
	if i < len(values) {
		return values[i]
	}

	return nil
}
