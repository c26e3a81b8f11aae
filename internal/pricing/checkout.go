package pricing

import "github.com/everforgeworks/tradepost/internal/market"

// CheckoutEngine prices an in-progress multi-line order before it is
// submitted. Each line of the same product is priced as though the earlier
// lines had already committed: buys lower the effective stock seen by later
// lines, sells raise it. This keeps a UI's order preview in agreement with
// the progressive prices the executor will compute when the batch lands.
//
// The engine is requester-side and never mutates the real ledger.
type CheckoutEngine struct {
	stock StockReader

	// Net virtual stock offset per product: negative after buys,
	// positive after sells.
	offsets map[string]int
}

func NewCheckoutEngine(stock StockReader) *CheckoutEngine {
	return &CheckoutEngine{stock: stock, offsets: make(map[string]int)}
}

// Reset clears all virtual reservations, e.g. when the order is abandoned
// or has been submitted.
func (c *CheckoutEngine) Reset() {
	c.offsets = make(map[string]int)
}

// PriceBuyLine prices the next buy line and reserves its units virtually.
func (c *CheckoutEngine) PriceBuyLine(p *market.Product, multiplier int) PriceResult {
	result := BuyPriceAt(p, multiplier, c.effectiveStock(p))
	if result.Valid {
		c.offsets[p.ID] -= multiplier
	}
	return result
}

// PriceSellLine prices the next sell line and records its units virtually.
func (c *CheckoutEngine) PriceSellLine(p *market.Product, multiplier int, cond market.ItemCondition) PriceResult {
	result := SellPriceAt(p, multiplier, cond, c.effectiveStock(p))
	if result.Valid {
		c.offsets[p.ID] += multiplier
	}
	return result
}

func (c *CheckoutEngine) effectiveStock(p *market.Product) int {
	if p.MaxStock == market.UnlimitedStock {
		return market.UnlimitedStock
	}
	// Lines past exhaustion would drive the effective stock negative, which
	// must not read as the unlimited sentinel; they price at full scarcity
	// instead (and fail stock validation on submission).
	eff := c.stock.GetStock(p.ID) + c.offsets[p.ID]
	if eff < 0 {
		eff = 0
	}
	return eff
}
