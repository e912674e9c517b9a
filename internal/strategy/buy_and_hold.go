package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const NameBuyAndHold = "buy_and_hold"

// BuyAndHold enters on the second day and stays long. It is used as the
// benchmark for strategy reports.
type BuyAndHold struct{}

func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

func (b *BuyAndHold) Name() string {
	return NameBuyAndHold
}

func (b *BuyAndHold) Params() map[string]any {
	return map[string]any{}
}

func (b *BuyAndHold) Positions(prices types.PriceSeries) (types.PositionSeries, error) {
	if err := checkPrices(prices); err != nil {
		return types.PositionSeries{}, err
	}

	if prices.IsEmpty() {
		return types.EmptySeries[int](), nil
	}

	raw := make([]int, prices.Len())
	for i := range raw {
		raw[i] = 1
	}

	return lag(prices, raw), nil
}
