package ws

import "sync"

// Registry tracks live connections per identity and per room. It is
// process-local and ephemeral: entries live exactly as long as their
// connections, and nothing here is ever persisted. All methods are safe
// for concurrent use.
type Registry struct {
	mu sync.RWMutex
	// identity key -> connections of that identity (multi-tab, multi-device)
	identities map[string]map[*Client]struct{}
	// room name -> member connections
	rooms map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		identities: make(map[string]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// Add registers a connection under its identity key. Connections without
// a known identity are tracked only through their rooms.
func (r *Registry) Add(c *Client) {
	if c.identity.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.identities[c.identity.ID]
	if !ok {
		set = make(map[*Client]struct{})
		r.identities[c.identity.ID] = set
	}
	set[c] = struct{}{}
}

// Remove drops a connection from its identity set and from every room it
// joined, evicting entries that become empty.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.identities[c.identity.ID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.identities, c.identity.ID)
		}
	}
	for room := range c.rooms {
		r.leaveLocked(c, room)
	}
	c.rooms = nil
}

// Join adds the connection to a room. Idempotent.
func (r *Registry) Join(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}
	if c.rooms == nil {
		c.rooms = make(map[string]struct{})
	}
	c.rooms[room] = struct{}{}
}

// Leave removes the connection from a room. Idempotent.
func (r *Registry) Leave(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, room)
	delete(c.rooms, room)
}

func (r *Registry) leaveLocked(c *Client, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// RoomClients returns a snapshot of the room's members, minus the
// excluded connection if given.
func (r *Registry) RoomClients(room string, except *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Client, 0, len(members))
	for c := range members {
		if c == except {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IdentityClients returns a snapshot of one identity's connections.
func (r *Registry) IdentityClients(identityID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.identities[identityID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// ConnectionCount reports live connections for one identity.
func (r *Registry) ConnectionCount(identityID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities[identityID])
}

// RoomCount reports the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
