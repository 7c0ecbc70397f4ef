/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/liarliar/show"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"
)

// Role is what a connection says it is when it connects. It only decides
// which fields of the pushed state the connection gets to see.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDisplay  Role = "display"
	RoleComic    Role = "comic"
	RoleAudience Role = "audience"
)

var roles = []Role{RoleAdmin, RoleDisplay, RoleComic, RoleAudience}

// parseRole defaults to admin, so clients that don't say who they are see
// everything.
func parseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(roles, r) {
		return r
	}
	return RoleAdmin
}

const sendBuffer = 32

// Inbound is a frame received from a client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is a frame pushed to a client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan any
	role Role
	addr string

	// joined is closed once run has added the client.
	joined chan struct{}
}

type request struct {
	client *Client
	msg    Inbound
}

// Hub owns every connection. run tracks who is connected; each client's
// requests are handled in order on its own read loop, so a slow request only
// holds up the connection that sent it. show.Service serializes the writes.
type Hub struct {
	cfg *Config
	svc *show.Service

	clients map[*Client]bool
	mu      sync.RWMutex

	// pub orders state pushes: a snapshot read and the send that follows
	// it happen together, so no client sees an older state after a newer one.
	pub sync.Mutex

	register chan *Client
	unreg    chan *Client
	done     chan struct{}

	events map[string]event
}

func newHub(cfg *Config, svc *show.Service) *Hub {
	h := &Hub{
		cfg:      cfg,
		svc:      svc,
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		done:     make(chan struct{}),
	}
	h.events = h.eventTable()
	return h
}

func (h *Hub) run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			close(c.joined)

			logf(h.cfg, "EVENT: %s connected as %s from %s (%d connected)", c.id, c.role, c.addr, total)

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			logf(h.cfg, "EVENT: %s disconnected", c.id)
		}
	}
}

func (h *Hub) closeAll() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// dispatch runs one request. Failures are reported to the requesting client
// only, and a panicking handler costs that request and nothing else.
func (h *Hub) dispatch(ctx context.Context, req request) {
	c, name := req.client, req.msg.Event

	ev, ok := h.events[name]
	if !ok {
		h.replyError(c, "Unknown event: "+name)
		return
	}

	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logf(h.cfg, "ERROR: %s from %s panicked: %v", name, c.id, r)
			h.replyError(c, ev.fallback)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ev.handle(ctx, c, req.msg.Data); err != nil {
		if errors.As(err, new(*show.Error)) {
			logf(h.cfg, "EVENT: %s from %s rejected: %v", name, c.id, err)
		} else {
			logf(h.cfg, "ERROR: %s from %s: %v", name, c.id, err)
		}
		h.replyError(c, show.UserMessage(err, ev.fallback))
		return
	}

	logf(h.cfg, "EVENT: %s from %s in %s", name, c.id, time.Since(startTime).Round(time.Microsecond))
}

// sendLocked queues msg for c, dropping the client if it can't keep up.
func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) reply(c *Client, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		h.sendLocked(c, Outbound{Event: event, Data: data})
	}
}

func (h *Hub) replyError(c *Client, message string) {
	h.reply(c, "error", message)
}

// broadcast sends the same event to every client whose role passes to; a
// nil to means everyone.
func (h *Hub) broadcast(event string, data any, to func(Role) bool) {
	msg := Outbound{Event: event, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if to == nil || to(c.role) {
			h.sendLocked(c, msg)
		}
	}
}

// broadcastRoster sends each client the roster as its role may see it.
func (h *Hub) broadcastRoster(list []show.Comedian) {
	views := make(map[Role]Outbound, len(roles))

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		msg, ok := views[c.role]
		if !ok {
			msg = Outbound{Event: "comediansList", Data: projectComedians(c.role, list)}
			views[c.role] = msg
		}
		h.sendLocked(c, msg)
	}
}

func notAudience(r Role) bool {
	return r != RoleAudience
}

// snapshot rereads the game state and/or the roster concurrently.
func (h *Hub) snapshot(ctx context.Context, state, roster bool) (*show.GameState, []show.Comedian, error) {
	var (
		gs   *show.GameState
		list []show.Comedian
	)

	g, gctx := errgroup.WithContext(ctx)
	if state {
		g.Go(func() error {
			var err error
			gs, err = h.svc.GameState(gctx)
			return err
		})
	}
	if roster {
		g.Go(func() error {
			var err error
			list, err = h.svc.Comedians(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return gs, list, nil
}

// publish rebroadcasts the full canonical state after a mutation.
func (h *Hub) publish(ctx context.Context, state, roster bool) error {
	h.pub.Lock()
	defer h.pub.Unlock()

	gs, list, err := h.snapshot(ctx, state, roster)
	if err != nil {
		return err
	}

	if state {
		h.broadcast("gameState", gs, nil)
	}
	if roster {
		h.broadcastRoster(list)
	}
	return nil
}

func (h *Hub) sendSnapshot(ctx context.Context, c *Client) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h.pub.Lock()
	defer h.pub.Unlock()

	gs, list, err := h.snapshot(ctx, true, true)
	if err != nil {
		return err
	}

	h.reply(c, "gameState", gs)
	h.reply(c, "comediansList", projectComedians(c.role, list))
	return nil
}

// projectComedians strips what a role must not see: passwords from
// everyone but admins, and from the audience, answers that have not been
// revealed by a guess yet.
func projectComedians(role Role, list []show.Comedian) []show.Comedian {
	if role == RoleAdmin {
		return list
	}

	out := make([]show.Comedian, len(list))
	for i, c := range list {
		c = c.Clone()
		c.Password = ""
		if role == RoleAudience {
			for j := range c.Prompts {
				if c.Prompts[j].Guess == nil {
					c.Prompts[j].Answer = ""
				}
			}
		}
		out[i] = c
	}
	return out
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.cfg.allowOrigin,
	}
}

func serveWS(h *Hub) httprouter.Handle {
	upgrader := h.upgrader()

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(h.cfg, "ERROR: Upgrade from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			id:     uuid.NewString(),
			conn:   conn,
			send:   make(chan any, sendBuffer),
			role:   parseRole(r.URL.Query().Get("role")),
			addr:   realIP(r),
			joined: make(chan struct{}),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		<-client.joined

		if err := h.sendSnapshot(r.Context(), client); err != nil {
			logf(h.cfg, "ERROR: Initial sync for %s: %v", client.id, err)
		}

		client.readPump(r.Context(), h)
	}
}

// readPump handles the client's requests one after another until the
// connection drops or the hub shuts down.
func (c *Client) readPump(ctx context.Context, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case <-h.done:
			return
		default:
		}

		h.dispatch(ctx, request{client: c, msg: msg})
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}

	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
