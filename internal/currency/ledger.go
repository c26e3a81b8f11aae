/*
Package currency
File: ledger.go
Description:
    Denominated currency handling: totalling an actor's funds, taking payment
    with change-making, and paying out with a largest-denomination-first fill.
    The ledger never touches stock and owns no state of its own; money exists
    only as denomination items inside the actor's inventory.

    The change optimizer is greedy, not an exact coin-change solver: with
    unusual denomination sets it can hand back more items than strictly
    necessary.
*/

package currency

import (
	"github.com/rs/zerolog/log"

	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
)

// DefaultStackCap bounds how many stacks of one denomination a single payout
// may create. A pathological amount (or a config with only tiny notes) clamps
// at the cap instead of flooding the inventory.
const DefaultStackCap = 10

// DefaultStackQuantity is the largest unit count one created stack holds.
const DefaultStackQuantity = 100

// Ledger moves denominated currency in and out of actor inventories.
type Ledger struct {
	inv inventory.Inventory

	stackCap      int
	stackQuantity int
}

func NewLedger(inv inventory.Inventory) *Ledger {
	return &Ledger{inv: inv, stackCap: DefaultStackCap, stackQuantity: DefaultStackQuantity}
}

// SetStackLimits overrides the payout safeguards, used by configuration.
func (l *Ledger) SetStackLimits(stacks, quantity int) {
	if stacks > 0 {
		l.stackCap = stacks
	}
	if quantity > 0 {
		l.stackQuantity = quantity
	}
}

// GetTotalValue sums the actor's holdings across all accepted currency
// types. A denomination class shared by two accepted types counts once.
func (l *Ledger) GetTotalValue(actorID string, accepted []*market.CurrencyType) int {
	total := 0
	seen := make(map[string]bool)
	for _, currency := range accepted {
		for _, denom := range currency.Denominations {
			if seen[denom.ClassName] {
				continue
			}
			seen[denom.ClassName] = true
			for _, stack := range l.inv.ItemsByClass(actorID, denom.ClassName) {
				total += stack.Quantity * denom.Value
			}
		}
	}
	return total
}

// removal records one executed denomination withdrawal so a shortfall can be
// restored.
type removal struct {
	className string
	units     int
	value     int
}

// Remove takes amount worth of currency from the actor. Denominations are
// consumed largest-first; when granularity forces over-collection the surplus
// is immediately paid back as change. Returns false with the inventory fully
// restored when the actor cannot cover the amount.
func (l *Ledger) Remove(actorID string, amount int, accepted []*market.CurrencyType) bool {
	if amount <= 0 {
		return true
	}

	// Re-verify sufficiency before taking a single item, so a failed Remove
	// never leaves the actor partially extracted.
	if l.GetTotalValue(actorID, accepted) < amount {
		return false
	}

	removed := 0
	var executed []removal

	// As in GetTotalValue, a denomination class shared by two accepted
	// currency types is handled once, at its first listed value.
	seen := make(map[string]bool)
	for _, currency := range accepted {
		for _, denom := range currency.Denominations {
			remaining := amount - removed
			if remaining <= 0 {
				break
			}
			if seen[denom.ClassName] {
				continue
			}
			seen[denom.ClassName] = true

			stacks := l.inv.ItemsByClass(actorID, denom.ClassName)
			available := 0
			for _, s := range stacks {
				available += s.Quantity
			}
			if available == 0 {
				continue
			}

			needed := (remaining + denom.Value - 1) / denom.Value
			take := needed
			if take > available {
				take = available
			}

			if taken := l.withdraw(actorID, stacks, take); taken > 0 {
				executed = append(executed, removal{denom.ClassName, taken, denom.Value})
				removed += taken * denom.Value
			}
		}
	}

	if removed < amount {
		// Funds changed under us between the pre-check and the pass.
		l.restore(actorID, executed)
		return false
	}

	if surplus := removed - amount; surplus > 0 {
		l.Add(actorID, surplus, accepted)
	}
	return true
}

// withdraw pulls up to units off the given stacks and returns how many it
// actually took.
func (l *Ledger) withdraw(actorID string, stacks []inventory.Item, units int) int {
	taken := 0
	for _, stack := range stacks {
		if units <= 0 {
			break
		}
		step := stack.Quantity
		if step > units {
			step = units
		}
		if _, err := l.inv.RemoveItem(actorID, stack.Ref, step); err != nil {
			log.Error().Err(err).Str("actor", actorID).Str("class", stack.ClassName).
				Msg("currency withdrawal failed mid-stack")
			continue
		}
		taken += step
		units -= step
	}
	return taken
}

// restore puts previously withdrawn denominations back after a shortfall.
func (l *Ledger) restore(actorID string, executed []removal) {
	for _, r := range executed {
		if _, err := l.inv.CreateItem(actorID, r.className, r.units); err != nil {
			log.Error().Err(err).Str("actor", actorID).Str("class", r.className).
				Int("units", r.units).Msg("failed restoring withdrawn currency")
		}
	}
}

// Add pays amount out to the actor, filling with the largest denominations
// first. Stack creation is bounded by the configured safeguards; a request
// that would exceed them is clamped and logged rather than left to hang.
func (l *Ledger) Add(actorID string, amount int, accepted []*market.CurrencyType) {
	remaining := amount
	seen := make(map[string]bool)
	for _, currency := range accepted {
		for _, denom := range currency.Denominations {
			if remaining <= 0 {
				return
			}
			// A class re-listed by another accepted currency (possibly at a
			// conflicting value) fills at its first listed value only.
			if seen[denom.ClassName] {
				continue
			}
			seen[denom.ClassName] = true
			if denom.Value > remaining {
				continue
			}

			units := remaining / denom.Value
			allowed := l.stackCap * l.stackQuantity
			if units > allowed {
				log.Error().Str("actor", actorID).Str("class", denom.ClassName).
					Int("units", units).Int("allowed", allowed).
					Msg("payout exceeds stack safeguard, clamping")
				units = allowed
			}

			created := 0
			for created < units {
				stackQty := units - created
				if stackQty > l.stackQuantity {
					stackQty = l.stackQuantity
				}
				if _, err := l.inv.CreateItem(actorID, denom.ClassName, stackQty); err != nil {
					log.Error().Err(err).Str("actor", actorID).Str("class", denom.ClassName).
						Msg("failed materializing payout stack")
					break
				}
				created += stackQty
			}
			remaining -= created * denom.Value
		}
	}
	if remaining > 0 {
		log.Warn().Str("actor", actorID).Int("remainder", remaining).
			Msg("payout remainder not representable in accepted denominations")
	}
}
