package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
)

// WireConn is the writable half of a websocket connection. Satisfied by
// *websocket.Conn from gofiber/contrib.
type WireConn interface {
	WriteMessage(messageType int, data []byte) error
}

// Client is one live connection into the gateway. It is created on transport
// connect, destroyed on disconnect, and owns at most one room binding at a
// time via the PresenceRegistry.
type Client struct {
	ID       string
	Identity models.Identity

	conn    WireConn
	writeMu sync.Mutex
}

func NewClient(conn WireConn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}
}

// Write serializes writes per connection so events reach each client in the
// order they were broadcast.
func (c *Client) Write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(1, data)
}

// PresenceRegistry owns the live connection-to-room bindings. Its three maps
// are only ever touched together under one lock, so room membership never
// reflects a join or leave that is still in progress.
type PresenceRegistry struct {
	mu       sync.Mutex
	clients  map[string]*Client
	bindings map[string]uint
	rooms    map[uint]map[string]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		clients:  make(map[string]*Client),
		bindings: make(map[string]uint),
		rooms:    make(map[uint]map[string]struct{}),
	}
}

// Join binds the connection to a room. A connection bound elsewhere has to
// leave first.
func (r *PresenceRegistry) Join(client *Client, roomId uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[client.ID]; ok {
		return ErrAlreadyInRoom
	}

	r.clients[client.ID] = client
	r.bindings[client.ID] = roomId
	if _, ok := r.rooms[roomId]; !ok {
		r.rooms[roomId] = make(map[string]struct{})
	}
	r.rooms[roomId][client.ID] = struct{}{}

	return nil
}

// Leave removes the connection's binding and reports which room it was in.
// Calling it on an unbound connection is a no-op; this is also the disconnect
// cleanup path so it has to stay safe to call twice.
func (r *PresenceRegistry) Leave(connId string) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomId, ok := r.bindings[connId]
	if !ok {
		return 0, false
	}

	delete(r.bindings, connId)
	delete(r.clients, connId)
	if members, ok := r.rooms[roomId]; ok {
		delete(members, connId)
		if len(members) == 0 {
			delete(r.rooms, roomId)
		}
	}

	return roomId, true
}

// Binding reports the room a connection is currently bound to.
func (r *PresenceRegistry) Binding(connId string) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomId, ok := r.bindings[connId]
	return roomId, ok
}

// RoomMembers returns a snapshot of the connections currently in a room.
func (r *PresenceRegistry) RoomMembers(roomId uint) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomId]
	if !ok {
		return nil
	}

	out := make([]*Client, 0, len(members))
	for connId := range members {
		if client, ok := r.clients[connId]; ok {
			out = append(out, client)
		}
	}
	return out
}

func (r *PresenceRegistry) GetClient(connId string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connId]
	return client, ok
}
