// Package channel maps live connections to the group channels they should
// receive broadcasts for. Membership truth lives in persistence; this is the
// in-memory broadcast scope derived from it.
package channel

import "sync"

type member struct {
	userID uint
}

// Manager tracks channelID -> joined connections plus a reverse index so a
// disconnect or a membership revocation can evict every connection of a user
// without scanning all channels.
type Manager struct {
	mu       sync.RWMutex
	channels map[uint]map[string]member    // channelID -> connID -> owner
	byConn   map[string]map[uint]struct{}  // connID -> channelIDs joined
	byUser   map[uint]map[string]struct{}  // userID -> connIDs with any join
}

func NewManager() *Manager {
	return &Manager{
		channels: make(map[uint]map[string]member),
		byConn:   make(map[string]map[uint]struct{}),
		byUser:   make(map[uint]map[string]struct{}),
	}
}

// Join associates a connection with a channel. Idempotent.
func (m *Manager) Join(channelID, userID uint, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.join(channelID, userID, connID)
}

func (m *Manager) join(channelID, userID uint, connID string) {
	conns, ok := m.channels[channelID]
	if !ok {
		conns = make(map[string]member)
		m.channels[channelID] = conns
	}
	conns[connID] = member{userID: userID}

	joined, ok := m.byConn[connID]
	if !ok {
		joined = make(map[uint]struct{})
		m.byConn[connID] = joined
	}
	joined[channelID] = struct{}{}

	userConns, ok := m.byUser[userID]
	if !ok {
		userConns = make(map[string]struct{})
		m.byUser[userID] = userConns
	}
	userConns[connID] = struct{}{}
}

// Leave removes the association for one connection.
func (m *Manager) Leave(channelID, userID uint, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(channelID, connID)
}

func (m *Manager) leave(channelID uint, connID string) {
	var owner uint
	if conns, ok := m.channels[channelID]; ok {
		if mem, ok := conns[connID]; ok {
			owner = mem.userID
		}
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.channels, channelID)
		}
	}
	if joined, ok := m.byConn[connID]; ok {
		delete(joined, channelID)
		if len(joined) == 0 {
			delete(m.byConn, connID)
			if conns, ok := m.byUser[owner]; ok {
				delete(conns, connID)
				if len(conns) == 0 {
					delete(m.byUser, owner)
				}
			}
		}
	}
}

// SyncOnConnect joins a new session to every channel its user belongs to.
// Called once per session with membership sourced from persistence.
func (m *Manager) SyncOnConnect(userID uint, connID string, channelIDs []uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range channelIDs {
		m.join(id, userID, connID)
	}
}

// BroadcastTargets returns a snapshot of the connections joined to a channel.
func (m *Manager) BroadcastTargets(channelID uint) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := m.channels[channelID]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// EvictUser removes every live connection of a user from a channel and
// returns the evicted connection IDs. This is the explicit side effect of a
// membership revocation; it must not wait for the next join to be skipped.
func (m *Manager) EvictUser(channelID, userID uint) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for connID := range m.byUser[userID] {
		if _, ok := m.channels[channelID][connID]; ok {
			evicted = append(evicted, connID)
		}
	}
	for _, connID := range evicted {
		m.leave(channelID, connID)
	}
	return evicted
}

// EvictConn removes a connection from every channel it joined. Disconnect
// path: must run before any further broadcast decision is computed.
func (m *Manager) EvictConn(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	joined := m.byConn[connID]
	ids := make([]uint, 0, len(joined))
	for channelID := range joined {
		ids = append(ids, channelID)
	}
	for _, channelID := range ids {
		m.leave(channelID, connID)
	}
}

// DropChannel removes a channel entirely (group deleted) and returns the
// connections that were joined so the caller can notify them.
func (m *Manager) DropChannel(channelID uint) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns := m.channels[channelID]
	out := make([]string, 0, len(conns))
	for connID := range conns {
		out = append(out, connID)
	}
	for _, connID := range out {
		m.leave(channelID, connID)
	}
	return out
}

// ChannelsOfConn returns a snapshot of the channels one connection joined.
func (m *Manager) ChannelsOfConn(connID string) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	joined := m.byConn[connID]
	out := make([]uint, 0, len(joined))
	for id := range joined {
		out = append(out, id)
	}
	return out
}
