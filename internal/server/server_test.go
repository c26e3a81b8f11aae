package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"github.com/everforgeworks/tradepost/internal/currency"
	"github.com/everforgeworks/tradepost/internal/inventory"
	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/pricing"
	"github.com/everforgeworks/tradepost/internal/protocol"
	"github.com/everforgeworks/tradepost/internal/server"
	"github.com/everforgeworks/tradepost/internal/stock"
	"github.com/everforgeworks/tradepost/internal/store"
	"github.com/everforgeworks/tradepost/internal/trade"
)

type world struct {
	catalog  *market.Static
	stock    *stock.Ledger
	inv      *inventory.Memory
	money    *currency.Ledger
	store    *store.Memory
	executor *protocol.Executor
	hub      *server.Hub
	api      *server.API
}

func newWorld() *world {
	catalog := market.NewStatic(
		[]market.Product{{ID: "ration", ClassName: "Ration", CategoryID: "supplies",
			BuyPrice: 10, SellPrice: 5, MaxStock: 100}},
		[]market.Category{{ID: "supplies", Products: []string{"ration"}}},
		[]market.Trader{{ID: "store", Name: "General Store",
			Categories: []string{"supplies"}, Currencies: []string{"EUR"}}},
		[]market.CurrencyType{{
			Name:          "EUR",
			Denominations: []market.Denomination{{ClassName: "Euro1", Value: 1}},
		}},
		nil,
	)
	inv := inventory.NewMemory()
	st := store.NewMemory()
	ledger := stock.NewLedger(catalog, st)
	money := currency.NewLedger(inv)
	validator := trade.NewValidator(catalog, ledger, pricing.NewEngine(ledger), inv)
	coordinator := trade.NewCoordinator(catalog, ledger, money, inv, inventory.NewLot(1), validator, st)
	executor := protocol.NewExecutor(coordinator, nil, protocol.DefaultTickInterval)

	hub := server.NewHub(executor)
	executor.SetResponder(hub)
	ledger.Subscribe(hub)

	return &world{
		catalog:  catalog,
		stock:    ledger,
		inv:      inv,
		money:    money,
		store:    st,
		executor: executor,
		hub:      hub,
		api:      server.NewAPI(hub, catalog, ledger, st),
	}
}

func TestAPITraders(t *testing.T) {
	w := newWorld()
	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/traders")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var traders []market.Trader
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&traders))
	require.Len(t, traders, 1)
	assert.Equal(t, "store", traders[0].ID)
}

func TestAPIStock(t *testing.T) {
	w := newWorld()
	w.stock.GetStock("ration") // warm the counter
	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stock")
	require.NoError(t, err)
	defer resp.Body.Close()

	var entries []stock.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Equal(t, []stock.Entry{{ProductID: "ration", Quantity: 100}}, entries)
}

func TestAPIPresets(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.store.SavePresets("alice", []market.Preset{
		{ID: "field-kit", ProductID: "ration"},
	}))
	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/presets?actor=alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	var presets []market.Preset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&presets))
	require.Len(t, presets, 1)
	assert.Equal(t, "field-kit", presets[0].ID)

	// An actor with no saved presets gets an empty array, not null.
	resp, err = http.Get(ts.URL + "/api/presets?actor=bob")
	require.NoError(t, err)
	defer resp.Body.Close()
	body := json.NewDecoder(resp.Body)
	presets = nil
	require.NoError(t, body.Decode(&presets))
	assert.NotNil(t, presets)
	assert.Empty(t, presets)

	// The actor parameter is mandatory.
	resp, err = http.Get(ts.URL + "/api/presets")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSMiddleware(t *testing.T) {
	handler := server.CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/traders", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/traders", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestServeWsRequiresActor(t *testing.T) {
	w := newWorld()
	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// readEnvelope pulls the next message and returns its type tag with the raw
// payload.
func readEnvelope(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var head struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &head))
	return head.Type, raw
}

func TestWebsocketRoundtrip(t *testing.T) {
	w := newWorld()
	w.hub.OnFirstConnect(func(actorID string) {
		w.money.Add(actorID, 50, w.catalog.CurrenciesAccepted("store"))
	})

	var tmb tomb.Tomb
	tmb.Go(func() error { return w.hub.Run(&tmb) })
	defer func() {
		tmb.Kill(nil)
		_ = tmb.Wait()
	}()

	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?actor=alice"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// The welcome grant runs on registration; wait for the funds to land.
	require.Eventually(t, func() bool {
		return w.money.GetTotalValue("alice", w.catalog.CurrenciesAccepted("store")) == 50
	}, 2*time.Second, 10*time.Millisecond)

	submit := `{
	  "type": "submit_transactions",
	  "actor_id": "alice",
	  "trader_id": "store",
	  "transactions": [
	    {"id": "t1", "type": "buy", "product_id": "ration", "multiplier": 2, "price": 20, "trader_id": "store"}
	  ]
	}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(submit)))

	// The envelope queues until the executor tick drains it.
	require.Eventually(t, func() bool { return w.executor.Pending() == 1 },
		2*time.Second, 10*time.Millisecond)
	require.True(t, w.executor.Tick())

	// The drain produces a stock broadcast and a targeted result collection.
	var results *protocol.TransactionResultCollection
	var update *protocol.StockUpdate
	for i := 0; i < 2; i++ {
		msgType, raw := readEnvelope(t, conn)
		switch msgType {
		case protocol.MsgTransactionResults:
			results = &protocol.TransactionResultCollection{}
			require.NoError(t, json.Unmarshal(raw, results))
		case protocol.MsgStockUpdate:
			update = &protocol.StockUpdate{}
			require.NoError(t, json.Unmarshal(raw, update))
		}
	}

	require.NotNil(t, results)
	require.Len(t, results.Results, 1)
	assert.True(t, results.Results[0].Success, results.Results[0].Message)

	require.NotNil(t, update)
	require.Len(t, update.Entries, 1)
	assert.Equal(t, stock.Entry{ProductID: "ration", Quantity: 98}, update.Entries[0])

	assert.Equal(t, 30, w.money.GetTotalValue("alice", w.catalog.CurrenciesAccepted("store")))
	assert.Len(t, w.inv.ItemsByClass("alice", "Ration"), 2)
}

func TestWebsocketRejectsForeignActorSubmit(t *testing.T) {
	w := newWorld()
	var tmb tomb.Tomb
	tmb.Go(func() error { return w.hub.Run(&tmb) })
	defer func() {
		tmb.Kill(nil)
		_ = tmb.Wait()
	}()

	ts := httptest.NewServer(w.api.Mux())
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?actor=mallory", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	submit := `{
	  "type": "submit_transactions",
	  "actor_id": "alice",
	  "trader_id": "store",
	  "transactions": [
	    {"id": "t1", "type": "buy", "product_id": "ration", "multiplier": 1, "price": 10, "trader_id": "store"}
	  ]
	}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(submit)))

	// The submit claiming another actor never reaches the executor.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, w.executor.Pending())
}
