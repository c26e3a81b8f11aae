// Package store holds the durable state of the trading post: stock counters,
// currency definitions, and per-actor saved presets. The trading core talks
// to the Store interface; the daemon wires the SQLite implementation and
// tests wire the in-memory one.
package store

import "github.com/everforgeworks/tradepost/internal/market"

// Store is a durable key-value mapping with one record per product stock
// counter, one per currency configuration, and one per actor preset set.
type Store interface {
	// LoadStock returns the persisted stock counter for a product.
	// ok is false when no record exists yet (lazy creation is the
	// caller's concern).
	LoadStock(productID string) (qty int, ok bool, err error)

	// SaveStock upserts the stock counter for a product.
	SaveStock(productID string, qty int) error

	// LoadStockBulk fetches all listed product counters in one round trip.
	// Products without a record are absent from the result map.
	LoadStockBulk(productIDs []string) (map[string]int, error)

	// SaveCurrency upserts one currency configuration record.
	SaveCurrency(c *market.CurrencyType) error

	// LoadCurrencies returns every persisted currency configuration.
	LoadCurrencies() ([]market.CurrencyType, error)

	// SavePresets replaces the saved preset set of an actor.
	SavePresets(actorID string, presets []market.Preset) error

	// LoadPresets returns the saved preset set of an actor.
	LoadPresets(actorID string) ([]market.Preset, error)

	Close() error
}
