package websocket

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const RoomAllUsers = "all_users"

const (
	emitBufferSize  = 256
	clientQueueSize = 32
	writeWait       = 10 * time.Second
)

var (
	ErrHubStopped = errors.New("realtime hub is not running")
	ErrHubBusy    = errors.New("realtime hub is busy, event dropped")
)

func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type deadlineConn interface {
	SetWriteDeadline(t time.Time) error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn

	// owned by the Run goroutine
	queue chan Event
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	room  string
	event Event
}

// Hub owns every live connection. All room bookkeeping happens on the Run
// goroutine; producers only talk to it through channels. Each client has
// its own queue and writer, so a stalled socket only loses its own events.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	emit       chan outbound
	done       chan struct{}
	clients    atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		emit:       make(chan outbound, emitBufferSize),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			client.queue = make(chan Event, clientQueueSize)
			go h.writePump(client, client.queue)
			h.join(RoomAllUsers, client)
			h.join(UserRoom(client.UserID), client)
			h.clients.Add(1)
		case client := <-h.unregister:
			if h.remove(client) {
				log.Printf("Client unregistered: %s", client.UserID)
			}
		case msg := <-h.emit:
			h.deliver(msg)
		}
	}
}

func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) error {
	return h.send(RoomAllUsers, event, payload)
}

// EmitToUser sends an event to all connections of one user.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, payload interface{}) error {
	return h.send(UserRoom(userID), event, payload)
}

func (h *Hub) ClientCount() int {
	return int(h.clients.Load())
}

// send never blocks: when the hub is behind, the event is dropped.
func (h *Hub) send(room, event string, payload interface{}) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.emit <- outbound{room: room, event: Event{Type: event, Payload: payload}}:
		return nil
	default:
		log.Printf("⚠️ Realtime hub busy, dropping %s for %s", event, room)
		return ErrHubBusy
	}
}

func (h *Hub) join(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
}

// remove drops c from every room and closes its queue, which ends its writer.
func (h *Hub) remove(c *Client) bool {
	found := false
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			found = true
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if found {
		close(c.queue)
		h.clients.Add(-1)
	}
	return found
}

func (h *Hub) deliver(msg outbound) {
	var slow []*Client
	for c := range h.rooms[msg.room] {
		select {
		case c.queue <- msg.event:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		log.Printf("⚠️ Client %s is not keeping up, disconnecting", c.UserID)
		c.Conn.Close()
		h.remove(c)
	}
}

// writePump is the only writer of c.Conn once c is registered.
func (h *Hub) writePump(c *Client, queue <-chan Event) {
	for ev := range queue {
		if d, ok := c.Conn.(deadlineConn); ok {
			_ = d.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := c.Conn.WriteJSON(ev); err != nil {
			log.Printf("Error sending %s to client %s: %v", ev.Type, c.UserID, err)
			c.Conn.Close()
			h.Unregister(c)
			for range queue {
			}
			return
		}
	}
}

func (h *Hub) closeAll() {
	for _, c := range h.allClients() {
		c.Conn.Close()
		h.remove(c)
	}
}

func (h *Hub) allClients() []*Client {
	var out []*Client
	for c := range h.rooms[RoomAllUsers] {
		out = append(out, c)
	}
	return out
}
