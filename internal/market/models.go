/*
Package market
File: models.go
Description:
    Defines the catalog data structures for the trading universe.
    This file serves as the "schema" for the application, mapping directly to
    YAML configuration files and JSON API responses.

    No logic is performed here; this file is strictly for type definitions.
*/

package market

// UnlimitedStock marks a product whose stock is never tracked or bounded.
const UnlimitedStock = -1

// Untradeable marks a trade direction (buy or sell) that is disabled for a product.
const Untradeable = -1

// Product is one tradeable catalog entry.
type Product struct {
	ID          string  `yaml:"id" json:"id"`                     // Opaque stable ID (e.g., "ammo_9mm")
	ClassName   string  `yaml:"class_name" json:"class_name"`     // External item-type reference used by the inventory
	CategoryID  string  `yaml:"category" json:"category"`         // Owning category key
	BuyPrice    int     `yaml:"buy_price" json:"buy_price"`       // Base unit price when buying; -1 = cannot buy
	SellPrice   int     `yaml:"sell_price" json:"sell_price"`     // Base unit price when selling; -1 = cannot sell
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`   // Price growth per unit of scarcity, >= 1.0
	MaxStock    int     `yaml:"max_stock" json:"max_stock"`       // Stock ceiling; -1 = unlimited
	MinSellQty  int     `yaml:"min_sell_qty" json:"min_sell_qty"` // Smallest lot a sell may move; 0 = no minimum

	// TradeQuantity arrives from legacy configs as a packed integer and is
	// unpacked at the catalog boundary. The rest of the system only ever
	// sees the QuantityMode struct.
	TradeQuantityRaw int          `yaml:"trade_quantity" json:"-"`
	Quantity         QuantityMode `yaml:"-" json:"quantity"`

	SingleInstance bool `yaml:"single_instance" json:"single_instance"` // Vehicles and the like: multiplier must be 1
	Vehicle        bool `yaml:"vehicle" json:"vehicle"`                 // Routes through the parking/spawn sub-flow
}

// CanBuy reports whether the product is purchasable at all.
func (p *Product) CanBuy() bool { return p.BuyPrice != Untradeable }

// CanSell reports whether the product is sellable at all.
func (p *Product) CanSell() bool { return p.SellPrice != Untradeable }

// Category groups products for display and for bulk stock loading.
type Category struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Products []string `yaml:"products" json:"products"` // Product IDs in this category
}

// Trader is the counterparty an actor transacts with. It scopes which
// categories are on offer and which currencies it accepts.
type Trader struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Categories []string `yaml:"categories" json:"categories"` // Category IDs on offer
	Currencies []string `yaml:"currencies" json:"currencies"` // Accepted currency type names ("EUR", ...)
}

// Denomination is one concrete currency item and its monetary value.
type Denomination struct {
	ClassName string `yaml:"class_name" json:"class_name"` // Inventory item type of the note/coin
	Value     int    `yaml:"value" json:"value"`           // Positive integer worth
}

// CurrencyType is a named currency with its denominations sorted descending
// by value. Immutable after load except through an explicit reload.
type CurrencyType struct {
	Name          string         `yaml:"name" json:"name"`
	Denominations []Denomination `yaml:"denominations" json:"denominations"`
}

// Preset is a named bundle: a base product plus attachment products.
// Attachment IDs may repeat to express quantity. Presets can be
// client-supplied, so integrity is re-validated at transaction time.
type Preset struct {
	ID          string   `yaml:"id" json:"id"`
	ProductID   string   `yaml:"product" json:"product"`
	Attachments []string `yaml:"attachments" json:"attachments"`
}

// AttachmentCounts collapses the (possibly repeating) attachment list into
// per-product counts, preserving nothing about order.
func (p *Preset) AttachmentCounts() map[string]int {
	counts := make(map[string]int, len(p.Attachments))
	for _, id := range p.Attachments {
		counts[id]++
	}
	return counts
}
