package currency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/tradepost/internal/currency"
	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
)

// euro is pre-sorted descending the way the catalog hands currencies out.
func euro() []*market.CurrencyType {
	return []*market.CurrencyType{{
		Name: "EUR",
		Denominations: []market.Denomination{
			{ClassName: "Euro100", Value: 100},
			{ClassName: "Euro50", Value: 50},
			{ClassName: "Euro10", Value: 10},
			{ClassName: "Euro5", Value: 5},
			{ClassName: "Euro1", Value: 1},
		},
	}}
}

func TestGetTotalValue(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)

	assert.Equal(t, 0, ledger.GetTotalValue("alice", euro()))

	inv.Put("alice", inventory.Item{ClassName: "Euro100", Quantity: 2})
	inv.Put("alice", inventory.Item{ClassName: "Euro10", Quantity: 3})
	inv.Put("alice", inventory.Item{ClassName: "Euro10", Quantity: 1})
	assert.Equal(t, 240, ledger.GetTotalValue("alice", euro()))
}

func TestGetTotalValueSharedDenominationCountsOnce(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro10", Quantity: 1})

	accepted := append(euro(), euro()...)
	assert.Equal(t, 10, ledger.GetTotalValue("alice", accepted))
}

func TestRemoveExact(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro10", Quantity: 5})

	require.True(t, ledger.Remove("alice", 30, euro()))
	assert.Equal(t, 20, ledger.GetTotalValue("alice", euro()))
	// Exact coverage hands back no change items.
	assert.Equal(t, 1, inv.Count("alice"))
}

func TestRemoveMakesChange(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro50", Quantity: 1})

	// Paying 32 out of a single 50-note: the note is consumed and 18 comes
	// back as change (one 10, one 5, three 1s).
	require.True(t, ledger.Remove("alice", 32, euro()))
	assert.Equal(t, 18, ledger.GetTotalValue("alice", euro()))

	tens := inv.ItemsByClass("alice", "Euro10")
	require.Len(t, tens, 1)
	assert.Equal(t, 1, tens[0].Quantity)
	fives := inv.ItemsByClass("alice", "Euro5")
	require.Len(t, fives, 1)
	ones := inv.ItemsByClass("alice", "Euro1")
	require.Len(t, ones, 1)
	assert.Equal(t, 3, ones[0].Quantity)
	assert.Empty(t, inv.ItemsByClass("alice", "Euro50"))
}

func TestRemoveSpansDenominations(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro100", Quantity: 2})

	require.True(t, ledger.Remove("alice", 20, euro()))
	// One 100-note consumed, 80 returned: 50 + 3x10.
	assert.Equal(t, 180, ledger.GetTotalValue("alice", euro()))
	hundreds := inv.ItemsByClass("alice", "Euro100")
	require.Len(t, hundreds, 1)
	assert.Equal(t, 1, hundreds[0].Quantity)
}

func TestRemoveInsufficientFundsMutatesNothing(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro10", Quantity: 3})

	assert.False(t, ledger.Remove("alice", 31, euro()))
	assert.Equal(t, 30, ledger.GetTotalValue("alice", euro()))
	assert.Equal(t, 1, inv.Count("alice"))
}

func TestRemoveChangeInvariant(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro100", Quantity: 1})
	inv.Put("alice", inventory.Item{ClassName: "Euro5", Quantity: 3})
	inv.Put("alice", inventory.Item{ClassName: "Euro1", Quantity: 4})

	for _, amount := range []int{1, 7, 23, 58, 99} {
		before := ledger.GetTotalValue("alice", euro())
		require.True(t, ledger.Remove("alice", amount, euro()), "amount %d", amount)
		after := ledger.GetTotalValue("alice", euro())
		assert.Equal(t, before-amount, after, "amount %d", amount)
	}
}

func TestConflictingSharedDenominationFillsOnce(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	inv.Put("alice", inventory.Item{ClassName: "Euro50", Quantity: 1})

	// A second accepted currency re-lists Euro10 at a conflicting value.
	// The first listing wins in every pass, so the re-listing can never
	// mint extra Euro10 notes as change.
	accepted := []*market.CurrencyType{
		{Name: "EUR", Denominations: []market.Denomination{
			{ClassName: "Euro50", Value: 50},
			{ClassName: "Euro10", Value: 10},
		}},
		{Name: "OLD", Denominations: []market.Denomination{
			{ClassName: "Euro10", Value: 1},
		}},
	}

	require.True(t, ledger.Remove("alice", 32, accepted))
	tens := inv.ItemsByClass("alice", "Euro10")
	require.Len(t, tens, 1)
	assert.Equal(t, 1, tens[0].Quantity)
	// The 8 units this denomination set cannot represent are dropped, not
	// paid out at the conflicting value.
	assert.Equal(t, 10, ledger.GetTotalValue("alice", accepted))
}

func TestRemoveZeroOrNegativeIsNoop(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	assert.True(t, ledger.Remove("alice", 0, euro()))
	assert.True(t, ledger.Remove("alice", -5, euro()))
}

func TestAddLargestFirst(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)

	ledger.Add("alice", 266, euro())
	assert.Equal(t, 266, ledger.GetTotalValue("alice", euro()))

	hundreds := inv.ItemsByClass("alice", "Euro100")
	require.Len(t, hundreds, 1)
	assert.Equal(t, 2, hundreds[0].Quantity)
	require.Len(t, inv.ItemsByClass("alice", "Euro50"), 1)
	require.Len(t, inv.ItemsByClass("alice", "Euro10"), 1)
	require.Len(t, inv.ItemsByClass("alice", "Euro5"), 1)
	ones := inv.ItemsByClass("alice", "Euro1")
	require.Len(t, ones, 1)
	assert.Equal(t, 1, ones[0].Quantity)
}

func TestAddSplitsOversizedStacks(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	ledger.SetStackLimits(10, 3)

	ledger.Add("alice", 7, []*market.CurrencyType{{
		Name:          "EUR",
		Denominations: []market.Denomination{{ClassName: "Euro1", Value: 1}},
	}})
	// 7 units at a stack quantity of 3 lands as 3+3+1.
	stacks := inv.ItemsByClass("alice", "Euro1")
	require.Len(t, stacks, 3)
	assert.Equal(t, 7, ledger.GetTotalValue("alice", euro()))
}

func TestAddClampsAtStackSafeguard(t *testing.T) {
	inv := inventory.NewMemory()
	ledger := currency.NewLedger(inv)
	ledger.SetStackLimits(2, 5)

	ledger.Add("alice", 1000, []*market.CurrencyType{{
		Name:          "EUR",
		Denominations: []market.Denomination{{ClassName: "Euro1", Value: 1}},
	}})
	// 2 stacks x 5 units is all the safeguard permits.
	assert.Equal(t, 10, ledger.GetTotalValue("alice", euro()))
}
