/*
Package stock
File: ledger.go
Description:
    The stock ledger owns the current tradeable quantity of every product.
    Counters are cached in memory for the process lifetime, created lazily on
    first access, and written through to the store on every mutation. Nothing
    else in the system writes stock; the transaction coordinator is the only
    caller of the mutating methods.
*/

package stock

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"github.com/everforgeworks/tradepost/internal/market"
	"github.com/everforgeworks/tradepost/internal/store"
)

// Observer is notified after a stock counter changes. The websocket layer
// registers one to push stock updates to connected actors; tests register
// recorders. Callbacks run on the executor tick, so they must not block.
type Observer interface {
	StockChanged(productID string, qty int)
}

// Entry is one product counter in a ledger snapshot.
type Entry struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Ledger maps productID to its current stock. Mutations happen only on the
// executor tick, but read-only HTTP handlers snapshot concurrently, so all
// access funnels through one mutex (lazy loads mutate the cache too).
type Ledger struct {
	catalog market.Catalog
	store   store.Store

	mu sync.Mutex
	// Ordered so snapshots and bulk persistence iterate deterministically.
	cache     btree.Map[string, int]
	observers []Observer
}

func NewLedger(catalog market.Catalog, st store.Store) *Ledger {
	return &Ledger{catalog: catalog, store: st}
}

// Subscribe registers an observer for subsequent mutations.
func (l *Ledger) Subscribe(o Observer) {
	l.observers = append(l.observers, o)
}

// GetStock returns the current stock of a product, creating the counter
// lazily at the product's maximum on first access. Unlimited products always
// report -1.
func (l *Ledger) GetStock(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok {
		return 0
	}
	if product.MaxStock == market.UnlimitedStock {
		return market.UnlimitedStock
	}
	return l.load(product)
}

// load resolves the cached counter, consulting the store and then falling
// back to a full-stock lazy initialization.
func (l *Ledger) load(product *market.Product) int {
	if qty, ok := l.cache.Get(product.ID); ok {
		return qty
	}

	qty, found, err := l.store.LoadStock(product.ID)
	if err != nil {
		log.Error().Err(err).Str("product", product.ID).Msg("stock read failed, assuming full")
		found = false
	}
	if !found {
		// A product seen for the first time starts fully stocked.
		qty = product.MaxStock
		if err := l.store.SaveStock(product.ID, qty); err != nil {
			log.Error().Err(err).Str("product", product.ID).Msg("stock write failed, continuing in memory")
		}
	}
	l.cache.Set(product.ID, qty)
	return qty
}

// LoadForCategories pre-warms the cache for every product of the named
// categories in one store round trip, so opening a trader with hundreds of
// listings does not issue one read per product.
func (l *Ledger) LoadForCategories(categoryIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := l.catalog.ProductsInCategories(categoryIDs)
	persisted, err := l.store.LoadStockBulk(ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		product, ok := l.catalog.ProductByID(id)
		if !ok || product.MaxStock == market.UnlimitedStock {
			continue
		}
		if _, cached := l.cache.Get(id); cached {
			continue
		}
		if qty, found := persisted[id]; found {
			l.cache.Set(id, qty)
		} else {
			l.load(product)
		}
	}
	return nil
}

// CanDecrease reports whether a Buy of the given amount is coverable.
func (l *Ledger) CanDecrease(productID string, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok {
		return false
	}
	if product.MaxStock == market.UnlimitedStock {
		return true
	}
	return l.load(product) >= amount
}

// CanIncrease reports whether a Sell of the given amount still fits under
// the product's stock ceiling.
func (l *Ledger) CanIncrease(productID string, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok {
		return false
	}
	if product.MaxStock == market.UnlimitedStock {
		return true
	}
	return l.load(product)+amount <= product.MaxStock
}

// Decrease removes amount units of stock (a Buy). Returns false and mutates
// nothing when the counter cannot cover the amount.
func (l *Ledger) Decrease(productID string, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok || amount < 0 {
		return false
	}
	if product.MaxStock == market.UnlimitedStock {
		return true
	}
	current := l.load(product)
	if current < amount {
		return false
	}
	l.write(product.ID, current-amount)
	return true
}

// Increase adds amount units of stock (a Sell). Returns false and mutates
// nothing when the result would exceed the product's ceiling.
func (l *Ledger) Increase(productID string, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok || amount < 0 {
		return false
	}
	if product.MaxStock == market.UnlimitedStock {
		return true
	}
	current := l.load(product)
	if current+amount > product.MaxStock {
		return false
	}
	l.write(product.ID, current+amount)
	return true
}

// SetStock pins a counter to an exact value, used by runtime reconfiguration.
func (l *Ledger) SetStock(productID string, qty int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	product, ok := l.catalog.ProductByID(productID)
	if !ok {
		return false
	}
	if product.MaxStock == market.UnlimitedStock {
		return true
	}
	if qty < 0 || qty > product.MaxStock {
		return false
	}
	l.write(product.ID, qty)
	return true
}

// write updates the cache, persists, and fans out to observers. A failed
// persist is logged and the in-memory counter stays authoritative; the next
// successful write reconciles the store.
func (l *Ledger) write(productID string, qty int) {
	l.cache.Set(productID, qty)
	if err := l.store.SaveStock(productID, qty); err != nil {
		log.Error().Err(err).Str("product", productID).Int("qty", qty).
			Msg("stock write failed, continuing in memory")
	}
	for _, o := range l.observers {
		o.StockChanged(productID, qty)
	}
}

// Snapshot returns every cached counter in product-ID order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, l.cache.Len())
	l.cache.Scan(func(id string, qty int) bool {
		out = append(out, Entry{ProductID: id, Quantity: qty})
		return true
	})
	return out
}
