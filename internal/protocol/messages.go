/*
Package protocol
File: messages.go
Description:
    The request/response envelopes exchanged between a requester (client)
    and the executor (server), and the wire message types the websocket
    transport speaks. Envelopes live for exactly one drain cycle.
*/

package protocol

import (
	"github.com/everforgeworks/tradepost/internal/stock"
	"github.com/everforgeworks/tradepost/internal/trade"
)

// Wire message type tags.
const (
	MsgSubmitTransactions = "submit_transactions"
	MsgTransactionResults = "transaction_results"
	MsgStockUpdate        = "stock_update"
)

// TransactionRequest is one requester-to-executor envelope: a batch of
// transactions from one actor aimed at one trader.
type TransactionRequest struct {
	Type         string              `json:"type"`
	ActorID      string              `json:"actor_id"`
	TraderID     string              `json:"trader_id"`
	Transactions []trade.Transaction `json:"transactions"`
}

// TransactionResultCollection is the executor-to-requester envelope: one
// result per transaction of the originating request, in submission order.
type TransactionResultCollection struct {
	Type    string         `json:"type"`
	ActorID string         `json:"actor_id"`
	Results []trade.Result `json:"results"`
}

// StockUpdate pushes changed stock counters to requesters.
type StockUpdate struct {
	Type    string        `json:"type"`
	Entries []stock.Entry `json:"entries"`
}

func NewResultCollection(actorID string, results []trade.Result) *TransactionResultCollection {
	return &TransactionResultCollection{
		Type:    MsgTransactionResults,
		ActorID: actorID,
		Results: results,
	}
}

func NewStockUpdate(entries []stock.Entry) *StockUpdate {
	return &StockUpdate{Type: MsgStockUpdate, Entries: entries}
}
