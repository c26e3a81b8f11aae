/*
Package market
File: catalog.go
Description:
    Loads and serves the static trading catalog (products, categories,
    traders, currencies, presets) from a YAML world file. The catalog is
    read-only for the rest of the system; a reload swaps the whole snapshot
    at once so readers never observe a half-loaded world.
*/

package market

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Catalog is the read-only product/trader lookup surface the trading core
// consumes. The concrete implementation is the YAML-backed Store below;
// tests substitute their own.
type Catalog interface {
	ProductByID(id string) (*Product, bool)
	TraderByID(id string) (*Trader, bool)
	PresetByID(id string) (*Preset, bool)
	CurrencyByName(name string) (*CurrencyType, bool)
	// CurrenciesAccepted resolves a trader's accepted currency names into
	// their denomination sets, skipping names with no loaded definition.
	CurrenciesAccepted(traderID string) []*CurrencyType
	// TraderOffers reports whether the trader's categories include the product.
	TraderOffers(traderID, productID string) bool
	// ProductsInCategories lists the product IDs of all named categories.
	ProductsInCategories(categoryIDs []string) []string
	// Traders lists every trader, ordered by ID.
	Traders() []*Trader
}

// worldFile maps the root of the world YAML document.
type worldFile struct {
	Products   []Product      `yaml:"products"`
	Categories []Category     `yaml:"categories"`
	Traders    []Trader       `yaml:"traders"`
	Currencies []CurrencyType `yaml:"currencies"`
	Presets    []Preset       `yaml:"presets"`
}

// snapshot is one immutable loaded world.
type snapshot struct {
	products   map[string]*Product
	categories map[string]*Category
	traders    map[string]*Trader
	currencies map[string]*CurrencyType
	presets    map[string]*Preset
}

// Store is the YAML-backed Catalog. Reload replaces the snapshot atomically.
type Store struct {
	path string

	mu   sync.RWMutex
	snap *snapshot
}

// LoadCatalog reads the world file at path and builds a Store.
func LoadCatalog(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the world file. On any error the previous snapshot stays
// live, so a bad edit plus SIGHUP cannot take the market down.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read world file: %w", err)
	}

	var w worldFile
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("parse world file: %w", err)
	}

	snap, err := buildSnapshot(&w)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	log.Info().
		Int("products", len(snap.products)).
		Int("traders", len(snap.traders)).
		Int("currencies", len(snap.currencies)).
		Msg("catalog loaded")
	return nil
}

func buildSnapshot(w *worldFile) (*snapshot, error) {
	snap := &snapshot{
		products:   make(map[string]*Product, len(w.Products)),
		categories: make(map[string]*Category, len(w.Categories)),
		traders:    make(map[string]*Trader, len(w.Traders)),
		currencies: make(map[string]*CurrencyType, len(w.Currencies)),
		presets:    make(map[string]*Preset, len(w.Presets)),
	}

	for i := range w.Products {
		p := &w.Products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("product %d: empty id", i)
		}
		if p.Coefficient < 1.0 {
			// Old configs leave the field out entirely; treat that as flat pricing.
			p.Coefficient = 1.0
		}
		p.Quantity = UnpackQuantity(p.TradeQuantityRaw)
		snap.products[p.ID] = p
	}

	for i := range w.Categories {
		c := &w.Categories[i]
		snap.categories[c.ID] = c
		for _, pid := range c.Products {
			if prod, ok := snap.products[pid]; ok && prod.CategoryID == "" {
				prod.CategoryID = c.ID
			}
		}
	}

	for i := range w.Traders {
		snap.traders[w.Traders[i].ID] = &w.Traders[i]
	}

	for i := range w.Currencies {
		c := &w.Currencies[i]
		for _, d := range c.Denominations {
			if d.Value <= 0 {
				return nil, fmt.Errorf("currency %q: denomination %q has non-positive value %d",
					c.Name, d.ClassName, d.Value)
			}
		}
		// The ledger relies on descending value order for its greedy passes.
		sort.Slice(c.Denominations, func(a, b int) bool {
			return c.Denominations[a].Value > c.Denominations[b].Value
		})
		snap.currencies[c.Name] = c
	}

	for i := range w.Presets {
		p := &w.Presets[i]
		if _, ok := snap.products[p.ProductID]; !ok {
			return nil, fmt.Errorf("preset %q: unknown base product %q", p.ID, p.ProductID)
		}
		snap.presets[p.ID] = p
	}

	return snap, nil
}

func (s *Store) view() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) ProductByID(id string) (*Product, bool) {
	p, ok := s.view().products[id]
	return p, ok
}

func (s *Store) TraderByID(id string) (*Trader, bool) {
	t, ok := s.view().traders[id]
	return t, ok
}

func (s *Store) PresetByID(id string) (*Preset, bool) {
	p, ok := s.view().presets[id]
	return p, ok
}

func (s *Store) CurrencyByName(name string) (*CurrencyType, bool) {
	c, ok := s.view().currencies[name]
	return c, ok
}

func (s *Store) CurrenciesAccepted(traderID string) []*CurrencyType {
	snap := s.view()
	trader, ok := snap.traders[traderID]
	if !ok {
		return nil
	}
	out := make([]*CurrencyType, 0, len(trader.Currencies))
	for _, name := range trader.Currencies {
		if c, ok := snap.currencies[name]; ok {
			out = append(out, c)
		} else {
			log.Warn().Str("trader", traderID).Str("currency", name).
				Msg("trader accepts unknown currency, skipping")
		}
	}
	return out
}

func (s *Store) TraderOffers(traderID, productID string) bool {
	snap := s.view()
	trader, ok := snap.traders[traderID]
	if !ok {
		return false
	}
	product, ok := snap.products[productID]
	if !ok {
		return false
	}
	for _, cid := range trader.Categories {
		if cid == product.CategoryID {
			return true
		}
	}
	return false
}

func (s *Store) Traders() []*Trader {
	snap := s.view()
	out := make([]*Trader, 0, len(snap.traders))
	for _, t := range snap.traders {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (s *Store) ProductsInCategories(categoryIDs []string) []string {
	snap := s.view()
	var out []string
	for _, cid := range categoryIDs {
		if cat, ok := snap.categories[cid]; ok {
			out = append(out, cat.Products...)
		}
	}
	return out
}
