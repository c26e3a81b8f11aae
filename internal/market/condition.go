package market

// ItemCondition is the wear state of a concrete item instance. It scales the
// payout when selling; buying always hands over pristine items.
type ItemCondition int

const (
	Pristine ItemCondition = iota
	Worn
	Damaged
	BadlyDamaged
)

// Multiplier returns the price factor for the condition. Unknown values are
// treated as BadlyDamaged so a corrupted client field can never inflate a
// payout.
func (c ItemCondition) Multiplier() float64 {
	switch c {
	case Pristine:
		return 1.00
	case Worn:
		return 0.80
	case Damaged:
		return 0.60
	default:
		return 0.40
	}
}

func (c ItemCondition) String() string {
	switch c {
	case Pristine:
		return "pristine"
	case Worn:
		return "worn"
	case Damaged:
		return "damaged"
	case BadlyDamaged:
		return "badly_damaged"
	}
	return "unknown"
}
