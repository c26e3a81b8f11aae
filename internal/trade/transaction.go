/*
Package trade
File: transaction.go
Description:
    Transaction and result types plus the per-transaction state machine
    labels. A transaction is one line of a submitted batch: buy or sell one
    product at a client-computed price, optionally expanded by a preset
    bundle. Results mirror transactions one-to-one.
*/

package trade

import (
	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
)

// Type is the trade direction.
type Type string

const (
	Buy  Type = "buy"
	Sell Type = "sell"
)

// Transaction is one requested trade line. Price is the total the requester
// computed for the whole line (all multiplied units); the executor recomputes
// and requires a match before applying.
type Transaction struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	ProductID  string            `json:"product_id"`
	Multiplier int               `json:"multiplier"`
	Price      int               `json:"price"`
	TraderID   string            `json:"trader_id"`
	ItemRef    inventory.ItemRef `json:"item_ref,omitempty"` // Sell only: the owned instance being sold
	Preset     *market.Preset    `json:"preset,omitempty"`   // Buy only: client-supplied bundle, re-validated server-side
}

// Result is the outcome of exactly one submitted transaction.
type Result struct {
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	Type          Type   `json:"type"`
	Success       bool   `json:"success"`
	Code          string `json:"code,omitempty"` // One of the failure codes; empty on success
	Message       string `json:"message"`
}

func failure(tx *Transaction, code, message string) Result {
	return Result{
		TransactionID: tx.ID,
		ProductID:     tx.ProductID,
		Type:          tx.Type,
		Success:       false,
		Code:          code,
		Message:       message,
	}
}

func success(tx *Transaction, message string) Result {
	return Result{
		TransactionID: tx.ID,
		ProductID:     tx.ProductID,
		Type:          tx.Type,
		Success:       true,
		Message:       message,
	}
}

// State tracks a transaction through application. Used for logging and for
// reasoning about rollback scope; a transaction ends as either Committed or
// RolledBack (validation failures roll back trivially, nothing was applied).
type State int

const (
	StateReceived State = iota
	StateValidated
	StatePriced
	StateApplying
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StatePriced:
		return "priced"
	case StateApplying:
		return "applying"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	}
	return "unknown"
}
