package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates realistic daily market data for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartTime is the first trading day
	StartTime time.Time
	// Count is the number of trading days to generate
	Count int
	// SkipWeekends leaves Saturdays and Sundays out of the calendar
	SkipWeekends bool
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the total drift over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:        500,
		SkipWeekends: true,
		InitialPrice: 100.0,
		Volatility:   0.01,
		Trend:        0.1,
		VolumeBase:   1_000_000,
	}
}

// Generate creates daily OHLCV bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		if config.SkipWeekends {
			currentTime = nextWeekday(currentTime)
		}

		open := currentPrice

		// Box-Muller transform for a normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, close) * (1 - g.rng.Float64()*config.Volatility*0.5)

		data[i] = types.MarketData{
			Id:     "",
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(config.VolumeBase*(0.5+g.rng.Float64()), 2),
		}

		currentPrice = close
		currentTime = currentTime.AddDate(0, 0, 1)
	}

	return data
}

// Closes generates bars and returns their closes as a price series.
func (g *DataGenerator) Closes(config GeneratorConfig) types.PriceSeries {
	bars := g.Generate(config)
	series := types.PriceSeries{
		Dates:  make([]time.Time, len(bars)),
		Values: make([]float64, len(bars)),
	}

	for i, bar := range bars {
		series.Dates[i] = bar.Time
		series.Values[i] = bar.Close
	}

	return series
}

// Positions generates a random 0/1 position series on the given dates,
// switching with probability switchProb each day.
func (g *DataGenerator) Positions(dates []time.Time, switchProb float64) types.PositionSeries {
	series := types.PositionSeries{
		Dates:  append([]time.Time{}, dates...),
		Values: make([]int, len(dates)),
	}

	current := 0
	for i := range dates {
		if g.rng.Float64() < switchProb {
			current = 1 - current
		}

		series.Values[i] = current
	}

	return series
}

// ConstantSeries returns a series holding value on every date.
func ConstantSeries[T types.Number](dates []time.Time, value T) types.Series[T] {
	values := make([]T, len(dates))
	for i := range values {
		values[i] = value
	}

	return types.Series[T]{Dates: append([]time.Time{}, dates...), Values: values}
}

// Days returns count consecutive calendar days starting at start.
func Days(start time.Time, count int) []time.Time {
	dates := make([]time.Time, count)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	return dates
}

func nextWeekday(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}

	return t
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
