/*
Package main
File: main.go
Description: Trading post daemon. Loads the world catalog and daemon config,
wires the pricing, stock, currency, and transaction services together, and
serves the websocket protocol plus the read-only HTTP views. A SIGHUP
refreshes the catalog without a restart.
*/

package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/everforgeworks/tradepost/internal/config"
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

// startingFunds is granted to an actor the first time it connects, so a
// fresh world is immediately tradeable.
const startingFunds = 500

func main() {
	configPath := flag.String("config", "tradepost.yaml", "path to the daemon config")
	flag.Parse()

	// 1. Load daemon configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config failed")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// 2. Open the durable store.
	var st store.Store
	if cfg.DBPath == "" {
		log.Warn().Msg("no db_path configured, state will not survive restarts")
		st = store.NewMemory()
	} else {
		sqlite, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("store failed")
		}
		st = sqlite
	}
	defer st.Close()

	// 3. Load the world catalog and reconcile currency configs with the
	// last persisted set.
	catalog, err := market.LoadCatalog(cfg.WorldFile)
	if err != nil {
		log.Fatal().Err(err).Msg("world load failed")
	}
	syncCurrencies(catalog, st)

	// 4. Build the trading services. The coordinator is the only writer of
	// stock and currency; everything else reads.
	inv := inventory.NewMemory()
	parking := inventory.NewLot(cfg.ParkingSpots)
	ledger := stock.NewLedger(catalog, st)
	money := currency.NewLedger(inv)
	money.SetStackLimits(cfg.CurrencyStackCap, cfg.CurrencyStackQuantity)
	pricer := pricing.NewEngine(ledger)
	validator := trade.NewValidator(catalog, ledger, pricer, inv)
	coordinator := trade.NewCoordinator(catalog, ledger, money, inv, parking, validator, st)

	// 5. Pre-warm stock for every category any trader offers, so the first
	// session doesn't pay for one store read per product.
	for _, trader := range catalog.Traders() {
		if err := ledger.LoadForCategories(trader.Categories); err != nil {
			log.Error().Err(err).Str("trader", trader.ID).Msg("stock pre-load failed")
		}
	}

	// 6. Start the executor and the hub.
	var t tomb.Tomb
	executor := protocol.NewExecutor(coordinator, nil, cfg.TickInterval())
	hub := server.NewHub(executor)
	executor.SetResponder(hub)
	ledger.Subscribe(hub)
	hub.OnFirstConnect(func(actorID string) {
		accepted := allCurrencies(catalog)
		money.Add(actorID, startingFunds, accepted)
		log.Info().Str("actor", actorID).Int("funds", startingFunds).Msg("granted starting funds")
	})

	t.Go(func() error { return hub.Run(&t) })
	t.Go(func() error { return executor.Run(&t) })

	// 7. Hot-reload: SIGHUP refreshes the catalog without a restart.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for range sigChan {
			log.Info().Msg("reloading world catalog")
			if err := catalog.Reload(); err != nil {
				log.Error().Err(err).Msg("reload failed, previous catalog stays live")
				continue
			}
			syncCurrencies(catalog, st)
		}
	}()

	// 8. Serve.
	api := server.NewAPI(hub, catalog, ledger, st)
	log.Info().Str("addr", cfg.ListenAddr).Msg("tradepost daemon live")
	if err := http.ListenAndServe(cfg.ListenAddr, server.CORSMiddleware(api.Mux())); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// syncCurrencies persists the catalog's currency configurations and flags
// any persisted currency the world file no longer defines.
func syncCurrencies(catalog *market.Store, st store.Store) {
	persisted, err := st.LoadCurrencies()
	if err != nil {
		log.Error().Err(err).Msg("could not read persisted currencies")
	}
	for i := range persisted {
		if _, ok := catalog.CurrencyByName(persisted[i].Name); !ok {
			log.Warn().Str("currency", persisted[i].Name).
				Msg("persisted currency no longer defined in world file")
		}
	}
	for _, trader := range catalog.Traders() {
		for _, c := range catalog.CurrenciesAccepted(trader.ID) {
			if err := st.SaveCurrency(c); err != nil {
				log.Error().Err(err).Str("currency", c.Name).Msg("could not persist currency config")
			}
		}
	}
}

// allCurrencies collects every defined currency once, for the starting
// funds grant.
func allCurrencies(catalog *market.Store) []*market.CurrencyType {
	seen := make(map[string]bool)
	var out []*market.CurrencyType
	for _, trader := range catalog.Traders() {
		for _, c := range catalog.CurrenciesAccepted(trader.ID) {
			if !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c)
			}
		}
	}
	return out
}
