/*
Package trade
File: validator.go
Description:
    Transaction preconditions. Checks run in a fixed order and short-circuit
    on the first failure: structure, trader, product, price match, multiplier
    limits, then direction-specific stock/ownership checks. Presets may be
    client-supplied, so their integrity and trader availability are always
    re-established here regardless of what the client claims.
*/

package trade

import (
	"fmt"

	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/pricing"
	"github.com/everforgeworks/tradepost/internal/stock"
)

// Verdict is the validator's answer. On success it carries the server-side
// computed price and, for sells, the resolved item so the coordinator does
// not repeat the lookups.
type Verdict struct {
	OK      bool
	Code    string
	Message string

	Price int            // Server-computed total for the line
	Item  inventory.Item // Sell only: the resolved instance
}

func reject(code, format string, args ...any) Verdict {
	return Verdict{OK: false, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validator checks transactions against the catalog, live stock, and the
// actor's inventory.
type Validator struct {
	catalog market.Catalog
	stock   *stock.Ledger
	pricer  *pricing.Engine
	inv     inventory.Inventory
}

func NewValidator(catalog market.Catalog, ledger *stock.Ledger, pricer *pricing.Engine, inv inventory.Inventory) *Validator {
	return &Validator{catalog: catalog, stock: ledger, pricer: pricer, inv: inv}
}

// Validate runs every precondition for one transaction of the given actor.
func (v *Validator) Validate(tx *Transaction, actorID string) Verdict {
	// (1) Structural validity.
	if tx.ID == "" || tx.ProductID == "" || tx.TraderID == "" {
		return reject(CodeInvalidTransaction, "missing transaction, product, or trader id")
	}
	if tx.Type != Buy && tx.Type != Sell {
		return reject(CodeInvalidTransaction, "unknown transaction type %q", tx.Type)
	}
	if tx.Multiplier < 1 {
		return reject(CodeInvalidTransaction, "multiplier %d is below 1", tx.Multiplier)
	}
	if tx.Price < 0 {
		return reject(CodeInvalidTransaction, "negative price")
	}
	if tx.Type == Sell && tx.Preset != nil {
		return reject(CodeInvalidTransaction, "presets only apply to purchases")
	}

	if _, ok := v.catalog.TraderByID(tx.TraderID); !ok {
		return reject(CodeTraderNotFound, "trader %q does not exist", tx.TraderID)
	}

	// (2) Product exists.
	product, ok := v.catalog.ProductByID(tx.ProductID)
	if !ok {
		return reject(CodeProductNotFound, "product %q does not exist", tx.ProductID)
	}

	// (3) Server-side price must match the submitted price. Preset lines
	// with multiplier > 1 tolerate one monetary unit of slack per
	// multiplied unit to absorb integer-division rounding.
	expected, item, verdict := v.computePrice(tx, product, actorID)
	if !verdict.OK {
		return verdict
	}
	tolerance := 0
	if tx.Preset != nil && tx.Multiplier > 1 {
		tolerance = tx.Multiplier
	}
	if diff := expected - tx.Price; diff > tolerance || diff < -tolerance {
		return reject(CodePriceMismatch, "submitted price %d does not match computed price %d", tx.Price, expected)
	}

	// (4) Single-instance products trade one at a time.
	if product.SingleInstance && tx.Multiplier > 1 {
		return reject(CodeInvalidTransaction, "product %q trades one instance at a time", product.ID)
	}

	switch tx.Type {
	case Buy:
		if verdict := v.validateBuy(tx, product); !verdict.OK {
			return verdict
		}
	case Sell:
		if verdict := v.validateSell(tx, product, item, actorID); !verdict.OK {
			return verdict
		}
	}

	return Verdict{OK: true, Price: expected, Item: item}
}

// computePrice resolves the authoritative server-side price for the line.
// For sells it also resolves the item, whose condition scales the payout.
func (v *Validator) computePrice(tx *Transaction, product *market.Product, actorID string) (int, inventory.Item, Verdict) {
	ok := Verdict{OK: true}
	switch tx.Type {
	case Buy:
		if tx.Preset != nil {
			total, verdict := v.presetBuyPrice(tx, product)
			return total, inventory.Item{}, verdict
		}
		result := v.pricer.CalculateBuyPrice(product, tx.Multiplier)
		if !result.Valid {
			return 0, inventory.Item{}, reject(CodeInvalidTransaction, "product %q cannot be bought", product.ID)
		}
		return result.Amount, inventory.Item{}, ok

	default: // Sell
		item, found := v.inv.Lookup(actorID, tx.ItemRef)
		if !found {
			return 0, inventory.Item{}, reject(CodeItemNotFound, "item %q not found in inventory", tx.ItemRef)
		}
		result := v.pricer.CalculateSellPrice(product, tx.Multiplier, item.Condition)
		if !result.Valid {
			return 0, inventory.Item{}, reject(CodeInvalidTransaction, "product %q cannot be sold", product.ID)
		}
		return result.Amount, item, ok
	}
}

// presetBuyPrice prices the base product plus every attachment at its own
// stock level. Unresolvable attachment ids surface as integrity violations
// here already, since an unpriceable bundle can never match.
func (v *Validator) presetBuyPrice(tx *Transaction, product *market.Product) (int, Verdict) {
	if tx.Preset.ProductID != product.ID {
		return 0, reject(CodePresetIntegrity, "preset %q targets product %q, transaction names %q",
			tx.Preset.ID, tx.Preset.ProductID, product.ID)
	}

	base := v.pricer.CalculateBuyPrice(product, tx.Multiplier)
	if !base.Valid {
		return 0, reject(CodeInvalidTransaction, "product %q cannot be bought", product.ID)
	}
	total := base.Amount

	for attID, count := range tx.Preset.AttachmentCounts() {
		attachment, ok := v.catalog.ProductByID(attID)
		if !ok {
			return 0, reject(CodePresetIntegrity, "preset %q references unknown product %q", tx.Preset.ID, attID)
		}
		result := v.pricer.CalculateBuyPrice(attachment, count*tx.Multiplier)
		if !result.Valid {
			return 0, reject(CodePresetIntegrity, "preset attachment %q cannot be bought", attID)
		}
		total += result.Amount
	}
	return total, Verdict{OK: true}
}

// validateBuy covers stock availability and, for presets, bundle integrity
// against the designated trader's actual offer.
func (v *Validator) validateBuy(tx *Transaction, product *market.Product) Verdict {
	if !v.catalog.TraderOffers(tx.TraderID, product.ID) {
		return reject(CodeProductNotFound, "trader %q does not offer %q", tx.TraderID, product.ID)
	}
	if !v.stock.CanDecrease(product.ID, tx.Multiplier) {
		return reject(CodeInsufficientStock, "only %d of %q in stock", v.stock.GetStock(product.ID), product.ID)
	}

	if tx.Preset == nil {
		return Verdict{OK: true}
	}
	for attID, count := range tx.Preset.AttachmentCounts() {
		if _, ok := v.catalog.ProductByID(attID); !ok {
			return reject(CodePresetIntegrity, "preset %q references unknown product %q", tx.Preset.ID, attID)
		}
		if !v.catalog.TraderOffers(tx.TraderID, attID) {
			return reject(CodePresetIntegrity, "trader %q does not offer preset attachment %q", tx.TraderID, attID)
		}
		if !v.stock.CanDecrease(attID, count*tx.Multiplier) {
			return reject(CodeInsufficientStock, "only %d of attachment %q in stock", v.stock.GetStock(attID), attID)
		}
	}
	return Verdict{OK: true}
}

// validateSell covers the resolved item's fitness: quantity, minimum
// sellable amount, reachability, vehicle occupancy, and the stock ceiling.
func (v *Validator) validateSell(tx *Transaction, product *market.Product, item inventory.Item, actorID string) Verdict {
	if item.Quantity < tx.Multiplier {
		return reject(CodeItemNotFound, "item %q holds %d units, %d requested", tx.ItemRef, item.Quantity, tx.Multiplier)
	}
	if product.MinSellQty > 0 && tx.Multiplier < product.MinSellQty {
		return reject(CodeInvalidTransaction, "product %q sells in lots of at least %d", product.ID, product.MinSellQty)
	}
	if !item.WithinRange {
		return reject(CodeItemNotFound, "item %q is out of interaction range", tx.ItemRef)
	}
	if product.Vehicle {
		if item.Occupied {
			return reject(CodeInvalidTransaction, "vehicle %q is occupied", tx.ItemRef)
		}
		if item.EngineOn {
			return reject(CodeInvalidTransaction, "vehicle %q still has its engine running", tx.ItemRef)
		}
		if item.LastDriver != "" && item.LastDriver != actorID {
			return reject(CodeInvalidTransaction, "vehicle %q was last driven by someone else", tx.ItemRef)
		}
	}
	if !v.stock.CanIncrease(product.ID, tx.Multiplier) {
		return reject(CodeInsufficientStock, "trader stock of %q is full", product.ID)
	}
	return Verdict{OK: true}
}
