/*
Package server
File: server.go
Description: Wires the hub into the transaction protocol (result delivery,
stock broadcasts) and exposes the read-only HTTP endpoints for catalog and
stock views.
*/

package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/protocol"
	"github.com/everforgeworks/tradepost/internal/stock"
	"github.com/everforgeworks/tradepost/internal/store"
)

// Deliver implements protocol.Responder: results are routed back to the
// submitting actor only.
func (h *Hub) Deliver(col *protocol.TransactionResultCollection) {
	payload, err := json.Marshal(col)
	if err != nil {
		log.Error().Err(err).Str("actor", col.ActorID).Msg("could not encode result collection")
		return
	}
	h.direct <- directMessage{actorID: col.ActorID, payload: payload}
}

// StockChanged implements stock.Observer: every mutation fans out to all
// connected requesters. The send is non-blocking because the callback runs
// on the executor tick.
func (h *Hub) StockChanged(productID string, qty int) {
	payload, err := json.Marshal(protocol.NewStockUpdate([]stock.Entry{
		{ProductID: productID, Quantity: qty},
	}))
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn().Str("product", productID).Msg("stock broadcast queue full, dropping update")
	}
}

// API serves the read-only views a trading UI needs before it opens a
// websocket.
type API struct {
	hub     *Hub
	catalog market.Catalog
	stock   *stock.Ledger
	store   store.Store
}

func NewAPI(hub *Hub, catalog market.Catalog, ledger *stock.Ledger, st store.Store) *API {
	return &API{hub: hub, catalog: catalog, stock: ledger, store: st}
}

// Mux builds the HTTP routing table.
func (a *API) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/traders", a.handleGetTraders)
	mux.HandleFunc("/api/stock", a.handleGetStock)
	mux.HandleFunc("/api/presets", a.handleGetPresets)
	mux.HandleFunc("/ws", a.hub.ServeWs)
	return mux
}

func (a *API) handleGetTraders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.catalog.Traders())
}

func (a *API) handleGetStock(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.stock.Snapshot())
}

// handleGetPresets returns the presets an actor saved through earlier
// purchases. Always an array, never null.
func (a *API) handleGetPresets(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actor")
	if actorID == "" {
		http.Error(w, "actor query parameter required", http.StatusBadRequest)
		return
	}
	presets, err := a.store.LoadPresets(actorID)
	if err != nil {
		log.Error().Err(err).Str("actor", actorID).Msg("could not load saved presets")
		http.Error(w, "could not load presets", http.StatusInternalServerError)
		return
	}
	if presets == nil {
		presets = []market.Preset{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(presets)
}

// CORSMiddleware lets browser-hosted clients talk to the daemon across
// domains.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
