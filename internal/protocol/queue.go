/*
Package protocol
File: queue.go
Description:
    The asynchronous transaction pipeline. Two independent FIFO queues sit
    between the two sides: the executor drains requests, the requester drains
    result collections. Both drain on a fixed wall-clock tick and remove
    exactly one envelope per tick, which bounds per-tick work and throttles
    bursty clients. A requester holds at most one request in flight per
    actor.
*/

package protocol

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/everforgeworks/tradepost/internal/trade"
)

// DefaultTickInterval is the drain cadence both queue sides run on.
const DefaultTickInterval = 500 * time.Millisecond

var (
	ErrEmptyRequest   = errors.New("request carries no transactions")
	ErrRequestPending = errors.New("a transaction request is already in flight for this actor")
)

// fifo is a minimal locked queue. Envelopes are popped one per tick, never
// drained wholesale.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *fifo[T]) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Responder receives the result collection produced for a request. The
// websocket layer routes it back to the submitting actor; in-process
// requesters receive it directly.
type Responder interface {
	Deliver(*TransactionResultCollection)
}

// Executor is the authoritative side. Requests queue up and are applied one
// envelope per tick, strictly FIFO.
type Executor struct {
	coordinator *trade.Coordinator
	responder   Responder
	interval    time.Duration
	requests    fifo[*TransactionRequest]
}

func NewExecutor(coordinator *trade.Coordinator, responder Responder, interval time.Duration) *Executor {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Executor{coordinator: coordinator, responder: responder, interval: interval}
}

// SetResponder breaks the construction cycle between the executor and the
// transport that routes its responses. Must be called before Run starts.
func (e *Executor) SetResponder(r Responder) { e.responder = r }

// Submit enqueues one request envelope.
func (e *Executor) Submit(req *TransactionRequest) error {
	if req == nil || len(req.Transactions) == 0 {
		return ErrEmptyRequest
	}
	e.requests.push(req)
	return nil
}

// Pending reports queued, not-yet-drained requests.
func (e *Executor) Pending() int { return e.requests.size() }

// Tick drains at most one request, applies its batch in submission order,
// and delivers exactly one result per transaction. Returns whether an
// envelope was processed. Exported so tests can drive time by hand.
func (e *Executor) Tick() bool {
	req, ok := e.requests.pop()
	if !ok {
		return false
	}

	results := e.coordinator.ApplyBatch(req.ActorID, req.Transactions)
	log.Info().Str("actor", req.ActorID).Str("trader", req.TraderID).
		Int("transactions", len(req.Transactions)).Msg("request drained")

	if e.responder != nil {
		e.responder.Deliver(NewResultCollection(req.ActorID, results))
	}
	return true
}

// Run drains the request queue on the fixed tick until the tomb dies.
func (e *Executor) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// ResultHandler consumes drained result collections on the requester side,
// typically to refresh a UI's stock and wallet view.
type ResultHandler func(*TransactionResultCollection)

// Requester is the client side. It enforces the single-in-flight rule per
// actor and drains responses on its own tick.
type Requester struct {
	submit   func(*TransactionRequest) error
	handler  ResultHandler
	interval time.Duration

	mu        sync.Mutex
	pending   map[string]bool
	responses fifo[*TransactionResultCollection]
}

// NewRequester wires a requester to a transport. submit hands an envelope to
// the executor side; handler sees each drained response.
func NewRequester(submit func(*TransactionRequest) error, handler ResultHandler, interval time.Duration) *Requester {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Requester{
		submit:   submit,
		handler:  handler,
		interval: interval,
		pending:  make(map[string]bool),
	}
}

// Submit sends a batch on behalf of an actor. A second submission while one
// is in flight is rejected, not queued; the caller re-submits after the
// response arrives.
func (r *Requester) Submit(req *TransactionRequest) error {
	if req == nil || len(req.Transactions) == 0 {
		return ErrEmptyRequest
	}

	r.mu.Lock()
	if r.pending[req.ActorID] {
		r.mu.Unlock()
		return ErrRequestPending
	}
	r.pending[req.ActorID] = true
	r.mu.Unlock()

	req.Type = MsgSubmitTransactions
	if err := r.submit(req); err != nil {
		r.mu.Lock()
		delete(r.pending, req.ActorID)
		r.mu.Unlock()
		return err
	}
	return nil
}

// Deliver implements Responder: responses queue up until the next tick.
func (r *Requester) Deliver(col *TransactionResultCollection) {
	r.responses.push(col)
}

// InFlight reports whether the actor has an unanswered request.
func (r *Requester) InFlight(actorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[actorID]
}

// Tick drains at most one response collection, clears the actor's in-flight
// flag, and hands the collection to the handler.
func (r *Requester) Tick() bool {
	col, ok := r.responses.pop()
	if !ok {
		return false
	}

	r.mu.Lock()
	delete(r.pending, col.ActorID)
	r.mu.Unlock()

	if r.handler != nil {
		r.handler(col)
	}
	return true
}

// Run drains the response queue on the fixed tick until the tomb dies.
func (r *Requester) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}
