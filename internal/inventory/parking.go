package inventory

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrParkingFull means every parking spot at the trader is taken.
var ErrParkingFull = errors.New("no parking spot available")

// Parking reserves a physical spot for a vehicle about to be spawned. The
// spatial geometry behind it lives outside the trading core; the coordinator
// only ever reserves before spawning and releases on rollback.
type Parking interface {
	Reserve(traderID, actorID string) (reservationID string, err error)
	Release(reservationID string)
}

// Lot is an in-memory Parking with a fixed number of spots per trader.
type Lot struct {
	mu       sync.Mutex
	capacity int
	taken    map[string]int    // traderID -> reserved spots
	byRes    map[string]string // reservationID -> traderID
}

func NewLot(spotsPerTrader int) *Lot {
	if spotsPerTrader < 1 {
		spotsPerTrader = 1
	}
	return &Lot{
		capacity: spotsPerTrader,
		taken:    make(map[string]int),
		byRes:    make(map[string]string),
	}
}

func (l *Lot) Reserve(traderID, actorID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.taken[traderID] >= l.capacity {
		return "", ErrParkingFull
	}
	l.taken[traderID]++
	id := uuid.NewString()
	l.byRes[id] = traderID
	return id, nil
}

func (l *Lot) Release(reservationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	traderID, ok := l.byRes[reservationID]
	if !ok {
		return
	}
	delete(l.byRes, reservationID)
	if l.taken[traderID] > 0 {
		l.taken[traderID]--
	}
}
