package hub

import (
	"sync"

	"collaborative-whiteboard/internal/domain"
)

// Session is the per-connection membership record. A session is either
// unbound (RoomID empty) or bound to exactly one room.
type Session struct {
	ConnID string
	RoomID string
	User   *domain.User
}

// Bound reports whether the session is currently in a room.
func (s *Session) Bound() bool {
	return s.RoomID != ""
}

// Registry tracks every live connection and the broadcast group of each room.
// Writes happen on the hub loop; the lock lets HTTP handlers read counts.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client // roomID -> connID -> client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Add registers an unbound connection.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.session = &Session{ConnID: c.id}
	r.clients[c.id] = c
}

// Remove drops the connection and its room subscription. It returns false if
// the connection was not registered.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.id]; !ok {
		return false
	}
	r.unbindLocked(c)
	delete(r.clients, c.id)
	return true
}

// Bind subscribes the connection to roomID's broadcast group, leaving any
// previous group.
func (r *Registry) Bind(c *Client, roomID string, user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbindLocked(c)
	group, ok := r.rooms[roomID]
	if !ok {
		group = make(map[string]*Client)
		r.rooms[roomID] = group
	}
	group[c.id] = c
	c.session.RoomID = roomID
	c.session.User = user
}

// Unbind returns the connection to the unbound state.
func (r *Registry) Unbind(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbindLocked(c)
}

func (r *Registry) unbindLocked(c *Client) {
	if c.session == nil || !c.session.Bound() {
		return
	}
	roomID := c.session.RoomID
	if group, ok := r.rooms[roomID]; ok {
		delete(group, c.id)
		if len(group) == 0 {
			delete(r.rooms, roomID)
		}
	}
	c.session.RoomID = ""
	c.session.User = nil
}

// Peers returns every connection bound to roomID except exclude.
func (r *Registry) Peers(roomID string, exclude *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group := r.rooms[roomID]
	peers := make([]*Client, 0, len(group))
	for _, c := range group {
		if c != exclude {
			peers = append(peers, c)
		}
	}
	return peers
}

// All returns every registered connection.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		all = append(all, c)
	}
	return all
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ActiveRoomIDs returns the rooms that have at least one bound connection.
func (r *Registry) ActiveRoomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}
