/*
Package server
File: hub.go
Description: Manages websocket connections between requesters and the
executor. Unlike a chat hub, delivery here is targeted: transaction results
go back to the actor that submitted them; only stock updates fan out to
everyone watching the market.
*/

package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/everforgeworks/tradepost/internal/protocol"
)

// Client is one connected requester.
type Client struct {
	actorID string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte // Buffered channel of outbound messages
}

type directMessage struct {
	actorID string
	payload []byte
}

// Hub maintains the set of active clients, routes targeted responses, and
// broadcasts stock updates.
type Hub struct {
	executor *protocol.Executor

	clients    map[string]*Client // keyed by actor ID
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	broadcast  chan []byte

	seen    map[string]bool
	welcome func(actorID string)
}

func NewHub(executor *protocol.Executor) *Hub {
	return &Hub{
		executor:   executor,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 64),
		broadcast:  make(chan []byte, 64),
		seen:       make(map[string]bool),
	}
}

// OnFirstConnect registers a callback run the first time an actor ever
// connects; the daemon uses it to grant starting funds. Must be set before
// Run starts.
func (h *Hub) OnFirstConnect(fn func(actorID string)) { h.welcome = fn }

// Run owns the client map. All registration, routing, and broadcast flows
// through this single loop.
func (h *Hub) Run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil

		case client := <-h.register:
			if old, ok := h.clients[client.actorID]; ok {
				// A reconnect replaces the stale session.
				close(old.send)
			}
			h.clients[client.actorID] = client
			if !h.seen[client.actorID] {
				h.seen[client.actorID] = true
				if h.welcome != nil {
					h.welcome(client.actorID)
				}
			}
			log.Info().Str("actor", client.actorID).Msg("requester connected")

		case client := <-h.unregister:
			if current, ok := h.clients[client.actorID]; ok && current == client {
				delete(h.clients, client.actorID)
				close(client.send)
				log.Info().Str("actor", client.actorID).Msg("requester disconnected")
			}

		case msg := <-h.direct:
			client, ok := h.clients[msg.actorID]
			if !ok {
				// The requester went away; it never sees this response and
				// re-enables submission through its own timeout.
				log.Warn().Str("actor", msg.actorID).Msg("dropping response for disconnected requester")
				continue
			}
			select {
			case client.send <- msg.payload:
			default:
				close(client.send)
				delete(h.clients, msg.actorID)
			}

		case payload := <-h.broadcast:
			for actorID, client := range h.clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(h.clients, actorID)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades a requester connection. The actor identity rides on the
// query string; a transport with real authentication would derive it from
// the session instead.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actor")
	if actorID == "" {
		http.Error(w, "missing actor", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{actorID: actorID, hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		req, err := protocol.ParseSubmit(raw)
		if err != nil {
			log.Warn().Err(err).Str("actor", c.actorID).Msg("rejecting malformed submit")
			continue
		}
		if req.ActorID != c.actorID {
			log.Warn().Str("actor", c.actorID).Str("claimed", req.ActorID).
				Msg("rejecting submit claiming another actor")
			continue
		}
		if err := c.hub.executor.Submit(req); err != nil {
			log.Warn().Err(err).Str("actor", c.actorID).Msg("submit refused")
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
