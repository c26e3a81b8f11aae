/*
Package inventory
File: inventory.go
Description:
    Boundary to the game inventory. The trading core never touches item
    storage directly; it materializes, removes, and attaches items through
    the Inventory interface and inspects them through read-only lookups.
    Memory is the reference implementation, backing the daemon and the test
    suites.
*/

package inventory

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/everforgeworks/tradepost/internal/market"
)

var (
	ErrActorUnknown = errors.New("actor has no inventory")
	ErrItemUnknown  = errors.New("item not found in inventory")
	ErrNoSpace      = errors.New("inventory full")
)

// ItemRef identifies one concrete item instance.
type ItemRef string

// Item is the view of one owned item instance the trading core reasons about.
type Item struct {
	Ref       ItemRef              `json:"ref"`
	ClassName string               `json:"class_name"`
	Quantity  int                  `json:"quantity"`
	Condition market.ItemCondition `json:"condition"`

	// Vehicle state, meaningful only for vehicle-class items.
	Occupied   bool   `json:"occupied,omitempty"`
	EngineOn   bool   `json:"engine_on,omitempty"`
	LastDriver string `json:"last_driver,omitempty"`

	// WithinRange is the world's answer to "can the actor reach this item
	// right now". Always true for carried items; vehicles may be parked
	// out of interaction range.
	WithinRange bool `json:"within_range"`

	Attachments []ItemRef `json:"attachments,omitempty"`
}

// Inventory is what the currency ledger and transaction coordinator need
// from the game inventory.
type Inventory interface {
	// CreateItem materializes quantity units of className in the actor's
	// inventory as one stack and returns its reference.
	CreateItem(actorID, className string, quantity int) (ItemRef, error)

	// RemoveItem takes quantity units off the referenced stack, deleting
	// the item (and anything attached to it) when it hits zero. It returns
	// the remaining quantity.
	RemoveItem(actorID string, ref ItemRef, quantity int) (remaining int, err error)

	// AttachItem mounts child onto parent. Both must belong to the actor.
	AttachItem(actorID string, parent, child ItemRef) bool

	// Lookup returns a copy of the referenced item.
	Lookup(actorID string, ref ItemRef) (Item, bool)

	// ItemsByClass lists the actor's stacks of one item class, used by the
	// currency ledger to scan denominations.
	ItemsByClass(actorID, className string) []Item
}

// Memory is an in-memory Inventory. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	actors map[string]map[ItemRef]*Item

	// FailCreateClass makes CreateItem fail for one class name; tests use
	// it to force mid-transaction materialization failures.
	FailCreateClass string
}

func NewMemory() *Memory {
	return &Memory{actors: make(map[string]map[ItemRef]*Item)}
}

func (m *Memory) bag(actorID string) map[ItemRef]*Item {
	bag, ok := m.actors[actorID]
	if !ok {
		bag = make(map[ItemRef]*Item)
		m.actors[actorID] = bag
	}
	return bag
}

func (m *Memory) CreateItem(actorID, className string, quantity int) (ItemRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if className == m.FailCreateClass && className != "" {
		return "", ErrNoSpace
	}
	if quantity < 1 {
		quantity = 1
	}
	item := &Item{
		Ref:         ItemRef(uuid.NewString()),
		ClassName:   className,
		Quantity:    quantity,
		Condition:   market.Pristine,
		WithinRange: true,
	}
	m.bag(actorID)[item.Ref] = item
	return item.Ref, nil
}

func (m *Memory) RemoveItem(actorID string, ref ItemRef, quantity int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bag, ok := m.actors[actorID]
	if !ok {
		return 0, ErrActorUnknown
	}
	item, ok := bag[ref]
	if !ok {
		return 0, ErrItemUnknown
	}
	if quantity >= item.Quantity {
		for _, child := range item.Attachments {
			delete(bag, child)
		}
		delete(bag, ref)
		return 0, nil
	}
	item.Quantity -= quantity
	return item.Quantity, nil
}

func (m *Memory) AttachItem(actorID string, parent, child ItemRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	bag, ok := m.actors[actorID]
	if !ok {
		return false
	}
	p, ok := bag[parent]
	if !ok {
		return false
	}
	if _, ok := bag[child]; !ok {
		return false
	}
	p.Attachments = append(p.Attachments, child)
	return true
}

func (m *Memory) Lookup(actorID string, ref ItemRef) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bag, ok := m.actors[actorID]
	if !ok {
		return Item{}, false
	}
	item, ok := bag[ref]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

func (m *Memory) ItemsByClass(actorID, className string) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Item
	for _, item := range m.actors[actorID] {
		if item.ClassName == className {
			out = append(out, *item)
		}
	}
	return out
}

// Put inserts a fully specified item, used by tests and world seeding to
// stage vehicles, damaged goods, and currency.
func (m *Memory) Put(actorID string, item Item) ItemRef {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.Ref == "" {
		item.Ref = ItemRef(uuid.NewString())
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	copied := item
	m.bag(actorID)[item.Ref] = &copied
	return item.Ref
}

// Update mutates an existing item in place through fn, used by tests to flip
// vehicle state.
func (m *Memory) Update(actorID string, ref ItemRef, fn func(*Item)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	bag, ok := m.actors[actorID]
	if !ok {
		return false
	}
	item, ok := bag[ref]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// Count returns the number of distinct item stacks an actor holds.
func (m *Memory) Count(actorID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actors[actorID])
}
