package trade

// Failure codes carried in transaction results. Every failure the coordinator
// or validator can produce maps onto one of these; none escape as faults.
const (
	CodeInvalidTransaction = "InvalidTransaction"
	CodeProductNotFound    = "ProductNotFound"
	CodeTraderNotFound     = "TraderNotFound"
	CodePriceMismatch      = "PriceMismatch"
	CodeInsufficientStock  = "InsufficientStock"
	CodeInsufficientFunds  = "InsufficientFunds"
	CodeItemNotFound       = "ItemNotFoundInInventory"
	CodeItemCreationFailed = "ItemCreationFailed"
	CodePresetIntegrity    = "PresetIntegrityViolation"
	CodeParkingUnavailable = "ParkingUnavailable"
)

var knownCodes = map[string]struct{}{
	CodeInvalidTransaction: {},
	CodeProductNotFound:    {},
	CodeTraderNotFound:     {},
	CodePriceMismatch:      {},
	CodeInsufficientStock:  {},
	CodeInsufficientFunds:  {},
	CodeItemNotFound:       {},
	CodeItemCreationFailed: {},
	CodePresetIntegrity:    {},
	CodeParkingUnavailable: {},
}

// IsKnownCode reports whether code belongs to the failure taxonomy. The
// empty code (a successful result) is considered known.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
