package store

import (
	"sync"

	"github.com/everforgeworks/tradepost/internal/market"
)

// Memory is the in-memory Store used by tests and by servers that opt out of
// durability. Safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	stock      map[string]int
	currencies map[string]market.CurrencyType
	presets    map[string][]market.Preset

	// FailWrites makes every mutation return an error; tests use it to
	// exercise the degraded-persistence path.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{
		stock:      make(map[string]int),
		currencies: make(map[string]market.CurrencyType),
		presets:    make(map[string][]market.Preset),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) LoadStock(productID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qty, ok := m.stock[productID]
	return qty, ok, nil
}

func (m *Memory) SaveStock(productID string, qty int) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[productID] = qty
	return nil
}

func (m *Memory) LoadStockBulk(productIDs []string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		if qty, ok := m.stock[id]; ok {
			out[id] = qty
		}
	}
	return out, nil
}

func (m *Memory) SaveCurrency(c *market.CurrencyType) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[c.Name] = *c
	return nil
}

func (m *Memory) LoadCurrencies() ([]market.CurrencyType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]market.CurrencyType, 0, len(m.currencies))
	for _, c := range m.currencies {
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) SavePresets(actorID string, presets []market.Preset) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[actorID] = append([]market.Preset(nil), presets...)
	return nil
}

func (m *Memory) LoadPresets(actorID string) ([]market.Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]market.Preset(nil), m.presets[actorID]...), nil
}
