/*
Package pricing
File: engine.go
Description:
    Stock-aware dynamic pricing. Prices grow exponentially with scarcity via
    the product coefficient; flat pricing applies when the coefficient is 1.0
    or the product has unlimited stock. The engine is pure: it reads stock and
    product data and produces a price, with no side effects.
*/

package pricing

import (
	"math"

	"github.com/everforgeworks/tradepost/internal/market"
)

// PriceResult is the outcome of one price calculation. Amount is -1 and
// Valid false when the trade direction is disabled for the product.
type PriceResult struct {
	Amount int  `json:"amount"`
	Valid  bool `json:"valid"`
}

func invalidPrice() PriceResult { return PriceResult{Amount: market.Untradeable, Valid: false} }

// StockReader is the read-only slice of the stock ledger the engine needs.
type StockReader interface {
	GetStock(productID string) int
}

// Engine prices trades against live stock levels.
type Engine struct {
	stock StockReader
}

func NewEngine(stock StockReader) *Engine {
	return &Engine{stock: stock}
}

// CalculateBuyPrice prices a purchase of multiplier units at current stock.
// Purchases always hand over pristine items, so no condition applies.
func (e *Engine) CalculateBuyPrice(p *market.Product, multiplier int) PriceResult {
	return BuyPriceAt(p, multiplier, e.stock.GetStock(p.ID))
}

// CalculateSellPrice prices a sale of multiplier units at current stock,
// scaled once by the condition of the item being sold.
func (e *Engine) CalculateSellPrice(p *market.Product, multiplier int, cond market.ItemCondition) PriceResult {
	return SellPriceAt(p, multiplier, cond, e.stock.GetStock(p.ID))
}

// BuyPriceAt prices a purchase against an explicit stock level. The checkout
// engine uses this to price multi-line orders against virtual stock.
func BuyPriceAt(p *market.Product, multiplier, effectiveStock int) PriceResult {
	if !p.CanBuy() || multiplier < 1 {
		return invalidPrice()
	}
	return PriceResult{
		Amount: totalPrice(p, p.BuyPrice, multiplier, effectiveStock, +1),
		Valid:  true,
	}
}

// SellPriceAt prices a sale against an explicit stock level.
func SellPriceAt(p *market.Product, multiplier int, cond market.ItemCondition, effectiveStock int) PriceResult {
	if !p.CanSell() || multiplier < 1 {
		return invalidPrice()
	}
	total := totalPrice(p, p.SellPrice, multiplier, effectiveStock, -1)
	// The condition multiplier applies once to the summed total, not per unit.
	total = int(math.Round(float64(total) * cond.Multiplier()))
	if total < 0 {
		total = 0
	}
	return PriceResult{Amount: total, Valid: true}
}

// totalPrice sums the per-unit prices for multiplier units starting from
// effectiveStock. Unlimited stock or a neutral coefficient short-circuits to
// flat pricing.
//
// Each unit trades at the stock level the preceding units left behind: the
// i-th unit of a buy sees one more unit of scarcity than the (i-1)-th, a sell
// sees one less. A unit at scarcity s (units missing below the ceiling) is
// worth round(base * coefficient^s); at full stock it is worth exactly base.
// Unit prices are rounded before summation.
func totalPrice(p *market.Product, base, multiplier, effectiveStock, direction int) int {
	if p.Coefficient == 1.0 || p.MaxStock == market.UnlimitedStock {
		return base * multiplier
	}

	scarcity := p.MaxStock - effectiveStock
	total := 0
	for i := 0; i < multiplier; i++ {
		exponent := float64(scarcity + i*direction)
		unit := math.Round(float64(base) * math.Pow(p.Coefficient, exponent))
		if unit < 0 {
			unit = 0
		}
		total += int(unit)
	}
	return total
}
