package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestDailyClosesKeepsLastBarOfDay() {
	bars := []MarketData{
		{Symbol: "SPY", Time: time.Date(2023, 6, 16, 15, 0, 0, 0, time.UTC), Close: 452.0},
		{Symbol: "SPY", Time: time.Date(2023, 6, 15, 9, 30, 0, 0, time.UTC), Close: 450.0},
		{Symbol: "SPY", Time: time.Date(2023, 6, 15, 16, 0, 0, 0, time.UTC), Close: 451.0},
		{Symbol: "AAPL", Time: time.Date(2023, 6, 15, 16, 0, 0, 0, time.UTC), Close: 181.0},
	}

	series := DailyCloses(bars, "SPY")
	suite.NoError(series.Validate())
	suite.Equal([]float64{451.0, 452.0}, series.Values)
	suite.Equal(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), series.Dates[0])
	suite.Equal(time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC), series.Dates[1])
}

func (suite *MarketTestSuite) TestDailyClosesAllSymbols() {
	bars := []MarketData{
		{Symbol: "BTCUSDT", Time: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), Close: 26750.0},
	}

	series := DailyCloses(bars, "")
	suite.Equal([]float64{26750.0}, series.Values)
}

func (suite *MarketTestSuite) TestDailyClosesEmpty() {
	series := DailyCloses(nil, "SPY")
	suite.True(series.IsEmpty())
	suite.NoError(series.Validate())
}
