package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SimulationTestSuite struct {
	suite.Suite
	start time.Time
}

func TestSimulationSuite(t *testing.T) {
	suite.Run(t, new(SimulationTestSuite))
}

func (suite *SimulationTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *SimulationTestSuite) days(n int) []time.Time {
	return mocks.Days(suite.start, n)
}

func (suite *SimulationTestSuite) noRiskFree() optional.Option[types.RiskFreeSeries] {
	return optional.None[types.RiskFreeSeries]()
}

func (suite *SimulationTestSuite) TestConcreteScenario() {
	dates := suite.days(4)
	prices := types.PriceSeries{Dates: dates, Values: []float64{100, 110, 100, 100}}
	positions := types.PositionSeries{Dates: dates, Values: []int{0, 1, 1, 0}}
	costBps := 10.0

	result, err := Simulate(prices, positions, suite.noRiskFree(), costBps)
	suite.Require().NoError(err)

	suite.Equal([]int{0, 1, 0, -1}, result.Trades.Values)
	suite.Equal([]int{0, 1, 1, 0}, result.Positions.Values)

	// expectation derived step by step from the daily formulas with runtime float64 arithmetic
	p := prices.Values
	oneWay := (costBps / 2.0) / 10000.0
	nav0 := 1.0
	net1 := 1*(p[1]/p[0]-1) + 0 - 1*oneWay
	nav1 := nav0 * (1 + net1)
	net2 := 1*(p[2]/p[1]-1) + 0 - 0*oneWay
	nav2 := nav1 * (1 + net2)
	net3 := 0*(p[3]/p[2]-1) + 0 - 1*oneWay
	nav3 := nav2 * (1 + net3)

	suite.Equal([]float64{nav0, nav1, nav2, nav3}, result.EquityCurve.Values)
	suite.InDelta(1.0995, nav1, 1e-12)
	suite.InDelta(1.0995*100.0/110.0*0.9995, nav3, 1e-12)
}

func (suite *SimulationTestSuite) TestFirstDayInvariants() {
	dates := suite.days(3)
	prices := types.PriceSeries{Dates: dates, Values: []float64{50, 55, 60}}
	positions := types.PositionSeries{Dates: dates, Values: []int{1, 1, 1}}

	result, err := Simulate(prices, positions, suite.noRiskFree(), DefaultCostBps)
	suite.Require().NoError(err)

	suite.Equal(1.0, result.EquityCurve.Values[0])
	suite.Equal(0, result.Trades.Values[0])
	// holding from day one is not a trade and is never charged
	suite.InDelta(60.0/50.0, result.EquityCurve.Values[2], 1e-12)
}

func (suite *SimulationTestSuite) TestFlatWithoutRiskFreeStaysAtOne() {
	prices := mocks.NewDataGenerator(3).Closes(mocks.DefaultConfig())
	positions := mocks.ConstantSeries(prices.Dates, 0)

	result, err := Simulate(prices, positions, suite.noRiskFree(), DefaultCostBps)
	suite.Require().NoError(err)

	for i, v := range result.EquityCurve.Values {
		suite.Equal(1.0, v, "day %d", i)
	}
}

func (suite *SimulationTestSuite) TestRiskFreeAccruesOnlyWhenFlat() {
	dates := suite.days(4)
	prices := types.PriceSeries{Dates: dates, Values: []float64{100, 100, 100, 100}}
	positions := types.PositionSeries{Dates: dates, Values: []int{0, 0, 1, 1}}
	rf := mocks.ConstantSeries(dates, 3.65)

	result, err := Simulate(prices, positions, optional.Some(rf), 0)
	suite.Require().NoError(err)

	daily := 3.65 / 100.0 / 365.0
	suite.InDelta(1.0, result.EquityCurve.Values[0], 0)
	suite.InDelta(1+daily, result.EquityCurve.Values[1], 1e-15)
	// long on day 2 and 3: no accrual, price flat
	suite.InDelta(1+daily, result.EquityCurve.Values[2], 1e-15)
	suite.InDelta(1+daily, result.EquityCurve.Values[3], 1e-15)
}

func (suite *SimulationTestSuite) TestAlignmentUsesIntersection() {
	all := suite.days(6)
	prices := types.PriceSeries{Dates: all[0:5], Values: []float64{10, 11, 12, 13, 14}}
	positions := types.PositionSeries{Dates: all[1:6], Values: []int{1, 1, 1, 1, 1}}
	rf := types.RiskFreeSeries{
		Dates:  []time.Time{all[0], all[2], all[3], all[4], all[5]},
		Values: []float64{1, 1, 1, 1, 1},
	}

	result, err := Simulate(prices, positions, optional.Some(rf), DefaultCostBps)
	suite.Require().NoError(err)

	expected := []time.Time{all[2], all[3], all[4]}
	suite.Equal(expected, result.EquityCurve.Dates)
	suite.Equal(expected, result.Trades.Dates)
	suite.Equal(expected, result.Positions.Dates)
	// day 3 vs day 2 uses the aligned predecessor price
	suite.InDelta(13.0/12.0, result.EquityCurve.Values[1], 1e-12)
}

func (suite *SimulationTestSuite) TestEmptyInputs() {
	result, err := Simulate(types.PriceSeries{}, types.PositionSeries{}, suite.noRiskFree(), DefaultCostBps)
	suite.Require().NoError(err)
	suite.True(result.EquityCurve.IsEmpty())
	suite.True(result.Positions.IsEmpty())
	suite.True(result.Trades.IsEmpty())
	suite.NotNil(result.EquityCurve.Values)
}

func (suite *SimulationTestSuite) TestDisjointInputsGiveEmptyResult() {
	all := suite.days(4)
	prices := types.PriceSeries{Dates: all[:2], Values: []float64{1, 2}}
	positions := types.PositionSeries{Dates: all[2:], Values: []int{1, 0}}

	result, err := Simulate(prices, positions, suite.noRiskFree(), DefaultCostBps)
	suite.Require().NoError(err)
	suite.Equal(0, result.Len())
}

func (suite *SimulationTestSuite) TestCostMonotonicity() {
	gen := mocks.NewDataGenerator(11)
	prices := gen.Closes(mocks.DefaultConfig())
	positions := gen.Positions(prices.Dates, 0.2)

	previous, err := Simulate(prices, positions, suite.noRiskFree(), 0)
	suite.Require().NoError(err)

	for _, cost := range []float64{1, 5, 10, 50, 200} {
		current, err := Simulate(prices, positions, suite.noRiskFree(), cost)
		suite.Require().NoError(err)

		for i := range current.EquityCurve.Values {
			suite.LessOrEqual(current.EquityCurve.Values[i], previous.EquityCurve.Values[i], "cost %v day %d", cost, i)
		}

		previous = current
	}
}

func (suite *SimulationTestSuite) TestNegativeCostIsApplied() {
	dates := suite.days(2)
	prices := types.PriceSeries{Dates: dates, Values: []float64{100, 100}}
	positions := types.PositionSeries{Dates: dates, Values: []int{0, 1}}

	result, err := Simulate(prices, positions, suite.noRiskFree(), -20)
	suite.Require().NoError(err)
	suite.InDelta(1.001, result.EquityCurve.Values[1], 1e-15)
}

func (suite *SimulationTestSuite) TestNonFiniteCostOnlyHitsTradeDays() {
	dates := suite.days(3)
	prices := types.PriceSeries{Dates: dates, Values: []float64{100, 110, 121}}
	positions := types.PositionSeries{Dates: dates, Values: []int{1, 1, 1}}

	for _, cost := range []float64{math.Inf(1), math.NaN()} {
		result, err := Simulate(prices, positions, suite.noRiskFree(), cost)
		suite.Require().NoError(err)
		suite.InDelta(1.1, result.EquityCurve.Values[1], 1e-12)
		suite.InDelta(1.21, result.EquityCurve.Values[2], 1e-12)
	}
}

func (suite *SimulationTestSuite) TestMissingPriceContributesNoReturn() {
	dates := suite.days(4)
	prices := types.PriceSeries{Dates: dates, Values: []float64{100, math.NaN(), 120, 132}}
	positions := mocks.ConstantSeries(dates, 1)

	result, err := Simulate(prices, positions, suite.noRiskFree(), 0)
	suite.Require().NoError(err)

	suite.Equal([]float64{1, 1, 1, 132.0 / 120.0}, result.EquityCurve.Values)
}

func (suite *SimulationTestSuite) TestUndefinedNAVIsForwardFilled() {
	dates := suite.days(4)
	// a zero price makes the next return infinite, then 0 * inf is undefined
	prices := types.PriceSeries{Dates: dates, Values: []float64{10, 0, 5, 5}}
	positions := mocks.ConstantSeries(dates, 1)

	result, err := Simulate(prices, positions, suite.noRiskFree(), 0)
	suite.Require().NoError(err)

	for i, v := range result.EquityCurve.Values {
		suite.False(math.IsNaN(v), "day %d", i)
	}

	suite.Equal(0.0, result.EquityCurve.Values[1])
	suite.Equal(0.0, result.EquityCurve.Values[3])
}

func (suite *SimulationTestSuite) TestMissingRiskFreeRateIsZero() {
	dates := suite.days(3)
	prices := types.PriceSeries{Dates: dates, Values: []float64{1, 1, 1}}
	positions := mocks.ConstantSeries(dates, 0)
	rf := types.RiskFreeSeries{Dates: dates, Values: []float64{5, math.NaN(), 5}}

	result, err := Simulate(prices, positions, optional.Some(rf), 0)
	suite.Require().NoError(err)

	suite.Equal(1.0, result.EquityCurve.Values[1])
	suite.InDelta(1+5.0/100.0/365.0, result.EquityCurve.Values[2], 1e-15)
}

func (suite *SimulationTestSuite) TestInvalidInputs() {
	dates := suite.days(3)
	good := types.PriceSeries{Dates: dates, Values: []float64{1, 2, 3}}
	goodPositions := mocks.ConstantSeries(dates, 1)

	testCases := []struct {
		name      string
		prices    types.PriceSeries
		positions types.PositionSeries
		riskFree  optional.Option[types.RiskFreeSeries]
		code      errors.ErrorCode
	}{
		{
			name:      "prices length mismatch",
			prices:    types.PriceSeries{Dates: dates[:2], Values: []float64{1, 2, 3}},
			positions: goodPositions,
			riskFree:  suite.noRiskFree(),
			code:      errors.ErrCodeInvalidInputType,
		},
		{
			name:      "positions unsorted",
			prices:    good,
			positions: types.PositionSeries{Dates: []time.Time{dates[1], dates[0]}, Values: []int{1, 1}},
			riskFree:  suite.noRiskFree(),
			code:      errors.ErrCodeInvalidInputType,
		},
		{
			name:      "risk-free duplicate dates",
			prices:    good,
			positions: goodPositions,
			riskFree:  optional.Some(types.RiskFreeSeries{Dates: []time.Time{dates[0], dates[0]}, Values: []float64{1, 1}}),
			code:      errors.ErrCodeInvalidInputType,
		},
		{
			name:      "position out of domain",
			prices:    good,
			positions: types.PositionSeries{Dates: dates, Values: []int{0, 2, 1}},
			riskFree:  suite.noRiskFree(),
			code:      errors.ErrCodeInvalidParameter,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := Simulate(tc.prices, tc.positions, tc.riskFree, DefaultCostBps)
			suite.Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *SimulationTestSuite) TestDeterministic() {
	gen := mocks.NewDataGenerator(99)
	prices := gen.Closes(mocks.DefaultConfig())
	positions := gen.Positions(prices.Dates, 0.1)
	rf := mocks.ConstantSeries(prices.Dates, 2.5)

	first, err := Simulate(prices, positions, optional.Some(rf), DefaultCostBps)
	suite.Require().NoError(err)
	second, err := Simulate(prices, positions, optional.Some(rf), DefaultCostBps)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *SimulationTestSuite) TestInputsAreNotMutated() {
	dates := suite.days(3)
	prices := types.PriceSeries{Dates: dates, Values: []float64{1, 2, 3}}
	positions := types.PositionSeries{Dates: dates, Values: []int{0, 1, 1}}

	result, err := Simulate(prices, positions, suite.noRiskFree(), DefaultCostBps)
	suite.Require().NoError(err)

	result.Positions.Values[0] = 1
	result.EquityCurve.Dates[0] = time.Time{}
	suite.Equal(0, positions.Values[0])
	suite.Equal(suite.start, dates[0])
}
