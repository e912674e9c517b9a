package types

import (
	"sort"
	"time"
)

// MarketData is a single OHLCV bar as stored in the parquet cache.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// DailyCloses collapses bars into one close per UTC calendar day, keeping the
// latest bar of each day, ordered by date. Bars of other symbols are ignored
// when symbol is non-empty.
func DailyCloses(bars []MarketData, symbol string) PriceSeries {
	latest := make(map[time.Time]MarketData)

	for _, bar := range bars {
		if symbol != "" && bar.Symbol != symbol {
			continue
		}

		t := bar.Time.UTC()
		key := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

		if prev, ok := latest[key]; !ok || bar.Time.After(prev.Time) {
			latest[key] = bar
		}
	}

	dates := make([]time.Time, 0, len(latest))
	for d := range latest {
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = latest[d].Close
	}

	return PriceSeries{Dates: dates, Values: values}
}
