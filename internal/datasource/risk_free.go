package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ReadRiskFree implements DataSource. The first column is the date and the
// second the annualized rate in percent. Dates missing between the first and
// last row take the previous row's value.
func (d *DuckDBDataSource) ReadRiskFree(path string) (types.RiskFreeSeries, error) {
	d.logger.Debug("Loading risk-free rates", zap.String("path", path))

	if _, err := os.Stat(path); err != nil {
		return types.RiskFreeSeries{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "risk-free rate file not found: %s", path)
	}

	rows, err := d.db.Query(fmt.Sprintf("SELECT * FROM %s", readFunction(path)))
	if err != nil {
		return types.RiskFreeSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "error reading risk-free rate file %s", path)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return types.RiskFreeSeries{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to get columns", err)
	}

	if len(columns) < 2 {
		return types.RiskFreeSeries{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "risk-free rate file %s has no value column", path)
	}

	observed := make(map[time.Time]float64)

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return types.RiskFreeSeries{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan row", err)
		}

		date, err := toDate(values[0])
		if err != nil {
			return types.RiskFreeSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid date in %s", path)
		}

		rate, err := toRate(values[1])
		if err != nil {
			return types.RiskFreeSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid rate in %s", path)
		}

		observed[date] = rate
	}

	if err := rows.Err(); err != nil {
		return types.RiskFreeSeries{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "error iterating rows", err)
	}

	if len(observed) == 0 {
		return types.RiskFreeSeries{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "risk-free rate file %s is empty", path)
	}

	return forwardFillDaily(observed), nil
}

// forwardFillDaily expands observations to every calendar day between the
// first and last observation.
func forwardFillDaily(observed map[time.Time]float64) types.RiskFreeSeries {
	dates := make([]time.Time, 0, len(observed))
	for date := range observed {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	first, last := dates[0], dates[len(dates)-1]

	series := types.RiskFreeSeries{}

	var current float64

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if v, ok := observed[day]; ok {
			current = v
		}

		series.Dates = append(series.Dates, day)
		series.Values = append(series.Values, current)
	}

	return series
}

func toDate(value any) (time.Time, error) {
	var t time.Time

	switch v := value.(type) {
	case time.Time:
		t = v
	case string:
		parsed, err := parseDate(strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, err
		}

		t = parsed
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", value)
	}

	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q as a date", s)
}

func toRate(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return math.NaN(), nil
		}

		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported rate type %T", value)
	}
}

func nanIfNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}
