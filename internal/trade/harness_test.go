package trade_test

import (
	"github.com/everforgeworks/tradepost/internal/currency"
	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/pricing"
	"github.com/everforgeworks/tradepost/internal/stock"
	"github.com/everforgeworks/tradepost/internal/store"
	"github.com/everforgeworks/tradepost/internal/trade"
)

// fixture wires a small but complete trading world: an armory with a
// progressive-priced rifle and flat accessories, and a garage selling one
// vehicle model with limited parking.
type fixture struct {
	catalog *market.Static
	stock   *stock.Ledger
	inv     *inventory.Memory
	money   *currency.Ledger
	lot     *inventory.Lot
	store   *store.Memory

	validator   *trade.Validator
	coordinator *trade.Coordinator
}

func newFixture() *fixture {
	return fixtureFrom(defaultCatalog())
}

func defaultCatalog() *market.Static {
	return market.NewStatic(
		[]market.Product{
			{ID: "rifle", ClassName: "Carbine", CategoryID: "weapons",
				BuyPrice: 100, SellPrice: 50, Coefficient: 1.05, MaxStock: 12},
			{ID: "scope", ClassName: "Scope", CategoryID: "weapons",
				BuyPrice: 40, SellPrice: 20, Coefficient: 1.0, MaxStock: 20},
			{ID: "ammo", ClassName: "AmmoBox", CategoryID: "weapons",
				BuyPrice: 5, SellPrice: 3, Coefficient: 1.0, MaxStock: 200, MinSellQty: 10},
			{ID: "sedan", ClassName: "Sedan", CategoryID: "vehicles",
				BuyPrice: 300, SellPrice: 150, Coefficient: 1.0, MaxStock: 2,
				SingleInstance: true, Vehicle: true},
		},
		[]market.Category{
			{ID: "weapons", Products: []string{"rifle", "scope", "ammo"}},
			{ID: "vehicles", Products: []string{"sedan"}},
		},
		[]market.Trader{
			{ID: "armory", Categories: []string{"weapons"}, Currencies: []string{"EUR"}},
			{ID: "garage", Categories: []string{"vehicles"}, Currencies: []string{"EUR"}},
		},
		[]market.CurrencyType{{
			Name: "EUR",
			Denominations: []market.Denomination{
				{ClassName: "Euro100", Value: 100},
				{ClassName: "Euro50", Value: 50},
				{ClassName: "Euro10", Value: 10},
				{ClassName: "Euro5", Value: 5},
				{ClassName: "Euro1", Value: 1},
			},
		}},
		[]market.Preset{{ID: "recon", ProductID: "rifle", Attachments: []string{"scope", "ammo"}}},
	)
}

func fixtureFrom(catalog *market.Static) *fixture {
	inv := inventory.NewMemory()
	st := store.NewMemory()
	ledger := stock.NewLedger(catalog, st)
	pricer := pricing.NewEngine(ledger)
	money := currency.NewLedger(inv)
	lot := inventory.NewLot(1)
	validator := trade.NewValidator(catalog, ledger, pricer, inv)

	return &fixture{
		catalog:     catalog,
		stock:       ledger,
		inv:         inv,
		money:       money,
		lot:         lot,
		store:       st,
		validator:   validator,
		coordinator: trade.NewCoordinator(catalog, ledger, money, inv, lot, validator, st),
	}
}

// fund stages amount as Euro100 notes plus small change in the actor's
// inventory. Amounts here are always note-representable.
func (f *fixture) fund(actorID string, amount int) {
	for _, d := range []struct {
		class string
		value int
	}{{"Euro100", 100}, {"Euro10", 10}, {"Euro5", 5}, {"Euro1", 1}} {
		if units := amount / d.value; units > 0 {
			f.inv.Put(actorID, inventory.Item{ClassName: d.class, Quantity: units})
			amount -= units * d.value
		}
	}
}

func (f *fixture) balance(actorID string) int {
	return f.money.GetTotalValue(actorID, f.catalog.CurrenciesAccepted("armory"))
}

func (f *fixture) recon() *market.Preset {
	p, _ := f.catalog.PresetByID("recon")
	return p
}

func buyTx(id, productID string, multiplier, price int) trade.Transaction {
	return trade.Transaction{
		ID: id, Type: trade.Buy, ProductID: productID,
		Multiplier: multiplier, Price: price, TraderID: "armory",
	}
}

func sellTx(id, productID string, multiplier, price int, ref inventory.ItemRef) trade.Transaction {
	return trade.Transaction{
		ID: id, Type: trade.Sell, ProductID: productID,
		Multiplier: multiplier, Price: price, TraderID: "armory", ItemRef: ref,
	}
}
