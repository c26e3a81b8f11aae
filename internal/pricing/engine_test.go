package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/pricing"
)

// stubStock serves fixed stock levels.
type stubStock map[string]int

func (s stubStock) GetStock(productID string) int { return s[productID] }

func rifle() *market.Product {
	return &market.Product{
		ID:          "rifle",
		ClassName:   "CarbineRifle",
		BuyPrice:    100,
		SellPrice:   50,
		Coefficient: 1.05,
		MaxStock:    12,
	}
}

func flatAmmo() *market.Product {
	return &market.Product{
		ID:          "ammo",
		ClassName:   "AmmoBox",
		BuyPrice:    5,
		SellPrice:   3,
		Coefficient: 1.0,
		MaxStock:    200,
	}
}

func TestFlatPricingIdentity(t *testing.T) {
	engine := pricing.NewEngine(stubStock{"ammo": 37})
	for m := 1; m <= 6; m++ {
		result := engine.CalculateBuyPrice(flatAmmo(), m)
		require.True(t, result.Valid)
		assert.Equal(t, 5*m, result.Amount)
	}
}

func TestUnlimitedStockPricesFlat(t *testing.T) {
	food := &market.Product{ID: "food", BuyPrice: 4, SellPrice: 2, Coefficient: 1.7, MaxStock: market.UnlimitedStock}
	engine := pricing.NewEngine(stubStock{"food": market.UnlimitedStock})

	buy := engine.CalculateBuyPrice(food, 4)
	require.True(t, buy.Valid)
	assert.Equal(t, 16, buy.Amount)

	sell := engine.CalculateSellPrice(food, 4, market.Pristine)
	require.True(t, sell.Valid)
	assert.Equal(t, 8, sell.Amount)
}

func TestUntradeableDirection(t *testing.T) {
	display := &market.Product{ID: "display", BuyPrice: market.Untradeable, SellPrice: 10, Coefficient: 1.0, MaxStock: 5}
	engine := pricing.NewEngine(stubStock{"display": 5})

	result := engine.CalculateBuyPrice(display, 1)
	assert.False(t, result.Valid)
	assert.Equal(t, -1, result.Amount)

	sell := engine.CalculateSellPrice(display, 1, market.Pristine)
	assert.True(t, sell.Valid)
}

func TestProgressiveBuyKnownValues(t *testing.T) {
	p := rifle()
	engine := pricing.NewEngine(stubStock{"rifle": 12})

	// Full stock: first unit trades at exactly the base price.
	one := engine.CalculateBuyPrice(p, 1)
	require.True(t, one.Valid)
	assert.Equal(t, 100, one.Amount)

	// Two units missing: round(100 * 1.05^2) = 110.
	engine = pricing.NewEngine(stubStock{"rifle": 10})
	assert.Equal(t, 110, engine.CalculateBuyPrice(p, 1).Amount)

	// Two units bought at stock 10: 110 + round(100 * 1.05^3) = 110 + 116.
	assert.Equal(t, 226, engine.CalculateBuyPrice(p, 2).Amount)
}

func TestProgressiveSellKnownValues(t *testing.T) {
	p := rifle()
	engine := pricing.NewEngine(stubStock{"rifle": 10})

	// Selling two units at stock 10: round(50*1.05^2) + round(50*1.05^1) = 55 + 53.
	pristine := engine.CalculateSellPrice(p, 2, market.Pristine)
	require.True(t, pristine.Valid)
	assert.Equal(t, 108, pristine.Amount)

	// Condition applies once to the summed total: round(108 * 0.8) = 86.
	worn := engine.CalculateSellPrice(p, 2, market.Worn)
	assert.Equal(t, 86, worn.Amount)
}

func TestBuyPriceMonotonicInMultiplier(t *testing.T) {
	p := rifle()
	engine := pricing.NewEngine(stubStock{"rifle": 8})

	previous := 0
	for m := 1; m <= 8; m++ {
		result := engine.CalculateBuyPrice(p, m)
		require.True(t, result.Valid)
		assert.Greater(t, result.Amount, previous, "multiplier %d", m)
		previous = result.Amount
	}
}

func TestBuyPriceMonotonicInScarcity(t *testing.T) {
	p := rifle()
	previous := 0
	for s := p.MaxStock; s >= 1; s-- {
		result := pricing.BuyPriceAt(p, 1, s)
		require.True(t, result.Valid)
		assert.Greater(t, result.Amount, previous, "stock %d", s)
		previous = result.Amount
	}
}

func TestBuyConditionAlwaysPristine(t *testing.T) {
	// Buying has no condition dimension; the API simply does not take one.
	// Sell at pristine equals the raw sell total.
	p := rifle()
	engine := pricing.NewEngine(stubStock{"rifle": 10})
	raw := engine.CalculateSellPrice(p, 1, market.Pristine)
	assert.Equal(t, 55, raw.Amount)
}

func TestInvalidMultiplier(t *testing.T) {
	engine := pricing.NewEngine(stubStock{"ammo": 10})
	assert.False(t, engine.CalculateBuyPrice(flatAmmo(), 0).Valid)
	assert.False(t, engine.CalculateSellPrice(flatAmmo(), -3, market.Pristine).Valid)
}
