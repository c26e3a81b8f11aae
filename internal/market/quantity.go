package market

// Legacy catalogs pack the buy and sell quantity behavior of a product into a
// single integer: the low nibble holds the buy mode, the next nibble the sell
// mode, and the high bits an optional fixed stack size. Everything past this
// file works with the unpacked QuantityMode instead of raw bit masks.

// QuantityBehavior says how the inventory quantity of a traded item is chosen.
type QuantityBehavior int

const (
	// QuantityDefault uses the item type's own default stack quantity.
	QuantityDefault QuantityBehavior = iota
	// QuantityMax fills the item to its maximum stack quantity.
	QuantityMax
	// QuantityFixed uses the FixedAmount from the descriptor.
	QuantityFixed
)

// QuantityMode is the unpacked trade-quantity descriptor of a product.
type QuantityMode struct {
	Buy         QuantityBehavior `json:"buy"`
	Sell        QuantityBehavior `json:"sell"`
	FixedAmount int              `json:"fixed_amount,omitempty"`
}

const (
	quantityBuyMask  = 0x0F
	quantitySellMask = 0xF0
	quantityAmtShift = 8
)

// UnpackQuantity decodes the packed trade-quantity integer of a legacy
// catalog entry. Unknown nibble values fall back to the default behavior so a
// newer config file does not wedge an older server.
func UnpackQuantity(raw int) QuantityMode {
	if raw <= 0 {
		return QuantityMode{Buy: QuantityDefault, Sell: QuantityDefault}
	}
	mode := QuantityMode{
		Buy:  decodeBehavior(raw & quantityBuyMask),
		Sell: decodeBehavior((raw & quantitySellMask) >> 4),
	}
	if mode.Buy == QuantityFixed || mode.Sell == QuantityFixed {
		mode.FixedAmount = raw >> quantityAmtShift
	}
	return mode
}

func decodeBehavior(nibble int) QuantityBehavior {
	switch nibble {
	case 1:
		return QuantityMax
	case 2:
		return QuantityFixed
	default:
		return QuantityDefault
	}
}
