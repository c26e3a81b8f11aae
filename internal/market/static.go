package market

import "sort"

// Static is a Catalog assembled directly from values, with no file behind
// it. Embedding servers and test suites use it instead of the YAML Store.
type Static struct {
	snap snapshot
}

func NewStatic(products []Product, categories []Category, traders []Trader,
	currencies []CurrencyType, presets []Preset) *Static {

	s := &Static{snap: snapshot{
		products:   make(map[string]*Product, len(products)),
		categories: make(map[string]*Category, len(categories)),
		traders:    make(map[string]*Trader, len(traders)),
		currencies: make(map[string]*CurrencyType, len(currencies)),
		presets:    make(map[string]*Preset, len(presets)),
	}}
	for i := range products {
		p := &products[i]
		if p.Coefficient < 1.0 {
			p.Coefficient = 1.0
		}
		p.Quantity = UnpackQuantity(p.TradeQuantityRaw)
		s.snap.products[p.ID] = p
	}
	for i := range categories {
		s.snap.categories[categories[i].ID] = &categories[i]
	}
	for i := range traders {
		s.snap.traders[traders[i].ID] = &traders[i]
	}
	for i := range currencies {
		c := &currencies[i]
		sort.Slice(c.Denominations, func(a, b int) bool {
			return c.Denominations[a].Value > c.Denominations[b].Value
		})
		s.snap.currencies[c.Name] = c
	}
	for i := range presets {
		s.snap.presets[presets[i].ID] = &presets[i]
	}
	return s
}

func (s *Static) ProductByID(id string) (*Product, bool) {
	p, ok := s.snap.products[id]
	return p, ok
}

func (s *Static) TraderByID(id string) (*Trader, bool) {
	t, ok := s.snap.traders[id]
	return t, ok
}

func (s *Static) PresetByID(id string) (*Preset, bool) {
	p, ok := s.snap.presets[id]
	return p, ok
}

func (s *Static) CurrencyByName(name string) (*CurrencyType, bool) {
	c, ok := s.snap.currencies[name]
	return c, ok
}

func (s *Static) CurrenciesAccepted(traderID string) []*CurrencyType {
	trader, ok := s.snap.traders[traderID]
	if !ok {
		return nil
	}
	out := make([]*CurrencyType, 0, len(trader.Currencies))
	for _, name := range trader.Currencies {
		if c, ok := s.snap.currencies[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *Static) TraderOffers(traderID, productID string) bool {
	trader, ok := s.snap.traders[traderID]
	if !ok {
		return false
	}
	product, ok := s.snap.products[productID]
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

func (s *Static) ProductsInCategories(categoryIDs []string) []string {
	var out []string
	for _, cid := range categoryIDs {
		if cat, ok := s.snap.categories[cid]; ok {
			out = append(out, cat.Products...)
		}
	}
	return out
}

func (s *Static) Traders() []*Trader {
	out := make([]*Trader, 0, len(s.snap.traders))
	for _, t := range s.snap.traders {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
