// Package presence tracks which users have at least one live connection.
// The registry is the single owner of the session set; nothing else mutates it.
package presence

import "sync"

const shardCount = 64

type shard struct {
	mu    sync.Mutex
	users map[uint]map[string]struct{} // userID -> set of connection IDs
}

// Registry maps users to their live connection IDs. Mutations for one user
// are linearizable; users on different shards never contend.
type Registry struct {
	shards [shardCount]*shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{users: make(map[uint]map[string]struct{})}
	}
	return r
}

func (r *Registry) shardFor(userID uint) *shard {
	return r.shards[userID%shardCount]
}

// Connect adds connID to the user's session set. becameOnline is true only
// for the transition from zero connections to one, reported exactly once
// even under concurrent connects.
func (r *Registry) Connect(userID uint, connID string) (becameOnline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		s.users[userID] = conns
		becameOnline = true
	}
	conns[connID] = struct{}{}
	return becameOnline
}

// Disconnect removes connID from the user's session set. becameOffline is
// true only when the last connection is removed; the entry is deleted in the
// same critical section so the transition can never be reported twice.
func (r *Registry) Disconnect(userID uint, connID string) (becameOffline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.users[userID]
	if !ok {
		return false
	}
	if _, ok := conns[connID]; !ok {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(s.users, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID uint) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users[userID]) > 0
}

// ConnectionsOf returns a snapshot of the user's live connection IDs,
// empty if the user is offline.
func (r *Registry) ConnectionsOf(userID uint) []string {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := s.users[userID]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// OnlineCount returns the number of users with at least one connection.
func (r *Registry) OnlineCount() int {
	total := 0
	for _, s := range r.shards {
		s.mu.Lock()
		total += len(s.users)
		s.mu.Unlock()
	}
	return total
}

// OnlineUsers returns a snapshot of all user IDs with a live connection.
func (r *Registry) OnlineUsers() []uint {
	var out []uint
	for _, s := range r.shards {
		s.mu.Lock()
		for id := range s.users {
			out = append(out, id)
		}
		s.mu.Unlock()
	}
	return out
}
