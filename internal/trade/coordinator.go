/*
Package trade
File: coordinator.go
Description:
    Applies validated transactions to the world: materializes or removes
    items, moves stock, and settles currency. The coordinator is the only
    component allowed to mutate the stock ledger, the currency ledger, and
    actor inventories. Rollback scope is strictly per transaction: a failure
    in line k of a batch undoes everything line k did and nothing that lines
    1..k-1 already committed.
*/

package trade

import (
	"github.com/rs/zerolog/log"

	"github.com/everforgeworks/tradepost/internal/currency"
	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/stock"
	"github.com/everforgeworks/tradepost/internal/store"
)

// Coordinator drives the apply/rollback cycle for transactions.
type Coordinator struct {
	catalog   market.Catalog
	stock     *stock.Ledger
	money     *currency.Ledger
	inv       inventory.Inventory
	parking   inventory.Parking
	validator *Validator
	presets   store.Store
}

func NewCoordinator(catalog market.Catalog, ledger *stock.Ledger, money *currency.Ledger,
	inv inventory.Inventory, parking inventory.Parking, validator *Validator,
	presets store.Store) *Coordinator {
	return &Coordinator{
		catalog:   catalog,
		stock:     ledger,
		money:     money,
		inv:       inv,
		parking:   parking,
		validator: validator,
		presets:   presets,
	}
}

// ApplyBatch processes the transactions of one request strictly in
// submission order, so the stock and currency effects of line i are visible
// to the validation and pricing of line i+1. The batch is not atomic; every
// line gets exactly one independent result.
func (c *Coordinator) ApplyBatch(actorID string, txs []Transaction) []Result {
	results := make([]Result, 0, len(txs))
	for i := range txs {
		results = append(results, c.Apply(actorID, &txs[i]))
	}
	return results
}

// Apply runs one transaction through the received → validated → priced →
// applying → committed/rolled-back cycle.
func (c *Coordinator) Apply(actorID string, tx *Transaction) Result {
	state := StateReceived

	verdict := c.validator.Validate(tx, actorID)
	if !verdict.OK {
		log.Warn().Str("actor", actorID).Str("tx", tx.ID).Str("state", state.String()).
			Str("code", verdict.Code).Str("reason", verdict.Message).Msg("transaction rejected")
		return failure(tx, verdict.Code, verdict.Message)
	}
	state = StateValidated
	log.Debug().Str("actor", actorID).Str("tx", tx.ID).Str("state", state.String()).Msg("transaction validated")

	// Pricing succeeded with validation; the verdict carries the price.
	state = StatePriced
	log.Debug().Str("actor", actorID).Str("tx", tx.ID).Str("state", state.String()).
		Int("price", verdict.Price).Msg("transaction priced")

	product, _ := c.catalog.ProductByID(tx.ProductID)
	accepted := c.catalog.CurrenciesAccepted(tx.TraderID)

	state = StateApplying
	log.Debug().Str("actor", actorID).Str("tx", tx.ID).Str("state", state.String()).Msg("applying")
	var result Result
	if tx.Type == Buy {
		result = c.applyBuy(actorID, tx, product, verdict, accepted)
	} else {
		result = c.applySell(actorID, tx, product, verdict, accepted)
	}

	if result.Success {
		state = StateCommitted
		log.Info().Str("actor", actorID).Str("tx", tx.ID).Str("product", tx.ProductID).
			Str("type", string(tx.Type)).Int("multiplier", tx.Multiplier).
			Int("price", verdict.Price).Str("state", state.String()).Msg("transaction committed")
		if tx.Type == Buy && tx.Preset != nil {
			c.rememberPreset(actorID, tx.Preset)
		}
	} else {
		state = StateRolledBack
		log.Warn().Str("actor", actorID).Str("tx", tx.ID).Str("code", result.Code).
			Str("reason", result.Message).Str("state", state.String()).Msg("transaction rolled back")
	}
	return result
}

// undoLog records what a transaction has applied so far, in a form the
// rollback path can reverse.
type undoLog struct {
	items        []inventory.ItemRef // created item stacks, attachments included
	decremented  map[string]int      // stock taken out, restored with Increase
	incremented  map[string]int      // stock put in, restored with Decrease
	reservations []string            // parking reservations to release
}

func newUndoLog() *undoLog {
	return &undoLog{decremented: make(map[string]int), incremented: make(map[string]int)}
}

// revert undoes everything in the log. Best effort: failures are logged and
// the remaining entries are still attempted.
func (u *undoLog) revert(c *Coordinator, actorID string) {
	for _, ref := range u.items {
		if item, ok := c.inv.Lookup(actorID, ref); ok {
			if _, err := c.inv.RemoveItem(actorID, ref, item.Quantity); err != nil {
				log.Error().Err(err).Str("actor", actorID).Str("item", string(ref)).
					Msg("rollback could not destroy created item")
			}
		}
	}
	for productID, units := range u.decremented {
		if !c.stock.Increase(productID, units) {
			log.Error().Str("product", productID).Int("units", units).
				Msg("rollback could not restore decremented stock")
		}
	}
	for productID, units := range u.incremented {
		if !c.stock.Decrease(productID, units) {
			log.Error().Str("product", productID).Int("units", units).
				Msg("rollback could not retract incremented stock")
		}
	}
	for _, res := range u.reservations {
		c.parking.Release(res)
	}
}

// rememberPreset upserts the preset bought with this transaction into the
// actor's saved set. Persistence is best effort: a store failure loses the
// bookmark, never the trade.
func (c *Coordinator) rememberPreset(actorID string, preset *market.Preset) {
	saved, err := c.presets.LoadPresets(actorID)
	if err != nil {
		log.Error().Err(err).Str("actor", actorID).Msg("could not load saved presets")
		return
	}
	replaced := false
	for i := range saved {
		if saved[i].ID == preset.ID {
			saved[i] = *preset
			replaced = true
			break
		}
	}
	if !replaced {
		saved = append(saved, *preset)
	}
	if err := c.presets.SavePresets(actorID, saved); err != nil {
		log.Error().Err(err).Str("actor", actorID).Str("preset", preset.ID).Msg("could not save preset")
	}
}

// applyBuy materializes the purchase, then moves stock, and debits currency
// last. Any failure reverses the whole line.
func (c *Coordinator) applyBuy(actorID string, tx *Transaction, product *market.Product,
	verdict Verdict, accepted []*market.CurrencyType) Result {

	// Funds are checked before anything materializes, so the common
	// "can't afford it" case creates no items to destroy. The debit at the
	// end re-verifies, which covers funds vanishing mid-application.
	if c.money.GetTotalValue(actorID, accepted) < verdict.Price {
		return failure(tx, CodeInsufficientFunds, "insufficient funds")
	}

	undo := newUndoLog()

	if product.Vehicle {
		reservation, err := c.parking.Reserve(tx.TraderID, actorID)
		if err != nil {
			return failure(tx, CodeParkingUnavailable, "no parking spot available for the vehicle")
		}
		undo.reservations = append(undo.reservations, reservation)
	}

	for i := 0; i < tx.Multiplier; i++ {
		baseRef, err := c.inv.CreateItem(actorID, product.ClassName, buyQuantity(product))
		if err != nil {
			undo.revert(c, actorID)
			return failure(tx, CodeItemCreationFailed, "could not create item")
		}
		undo.items = append(undo.items, baseRef)

		if tx.Preset == nil {
			continue
		}
		for attID, count := range tx.Preset.AttachmentCounts() {
			attachment, ok := c.catalog.ProductByID(attID)
			if !ok {
				undo.revert(c, actorID)
				return failure(tx, CodePresetIntegrity, "preset attachment vanished from catalog")
			}
			for j := 0; j < count; j++ {
				attRef, err := c.inv.CreateItem(actorID, attachment.ClassName, buyQuantity(attachment))
				if err != nil {
					undo.revert(c, actorID)
					return failure(tx, CodeItemCreationFailed, "could not create preset attachment")
				}
				undo.items = append(undo.items, attRef)
				if !c.inv.AttachItem(actorID, baseRef, attRef) {
					undo.revert(c, actorID)
					return failure(tx, CodeItemCreationFailed, "could not attach preset attachment")
				}
			}
		}
	}

	if !c.stock.Decrease(product.ID, tx.Multiplier) {
		undo.revert(c, actorID)
		return failure(tx, CodeInsufficientStock, "stock ran out while applying")
	}
	undo.decremented[product.ID] += tx.Multiplier

	if tx.Preset != nil {
		for attID, count := range tx.Preset.AttachmentCounts() {
			units := count * tx.Multiplier
			if !c.stock.Decrease(attID, units) {
				undo.revert(c, actorID)
				return failure(tx, CodeInsufficientStock, "attachment stock ran out while applying")
			}
			undo.decremented[attID] += units
		}
	}

	if !c.money.Remove(actorID, verdict.Price, accepted) {
		undo.revert(c, actorID)
		return failure(tx, CodeInsufficientFunds, "insufficient funds")
	}

	return success(tx, "purchase complete")
}

// applySell restocks the trader, removes the sold units, and credits the
// actor last. Stock moves first: retracting a counter on failure loses
// nothing, whereas recreating a removed item would reset its condition and
// drop its attachments.
func (c *Coordinator) applySell(actorID string, tx *Transaction, product *market.Product,
	verdict Verdict, accepted []*market.CurrencyType) Result {

	if !c.stock.Increase(product.ID, tx.Multiplier) {
		return failure(tx, CodeInsufficientStock, "trader stock filled up while applying")
	}

	// Partial-quantity sale: RemoveItem leaves the rest of the stack behind.
	if _, err := c.inv.RemoveItem(actorID, tx.ItemRef, tx.Multiplier); err != nil {
		if !c.stock.Decrease(product.ID, tx.Multiplier) {
			log.Error().Str("product", product.ID).Int("units", tx.Multiplier).
				Msg("rollback could not retract restocked units")
		}
		return failure(tx, CodeItemNotFound, "item vanished from inventory while applying")
	}

	c.money.Add(actorID, verdict.Price, accepted)
	return success(tx, "sale complete")
}

// buyQuantity resolves how many units one materialized stack holds based on
// the product's unpacked trade-quantity descriptor.
func buyQuantity(p *market.Product) int {
	if p.Quantity.Buy == market.QuantityFixed && p.Quantity.FixedAmount > 0 {
		return p.Quantity.FixedAmount
	}
	return 1
}
