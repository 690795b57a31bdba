// Package peers keeps the registry of peers discovered on the local network.
package peers

import (
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Peer is one discovered instance. Identity is stable for the lifetime of
// the remote process; address and port follow the latest announcement.
type Peer struct {
	ID       string
	IP       net.IP
	Port     int
	Hostname string
	LastSeen time.Time
}

// UDPAddr returns the announced unicast endpoint of the peer.
func (p Peer) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: p.IP, Port: p.Port}
}

func (p Peer) String() string {
	return p.ID + "@" + net.JoinHostPort(p.IP.String(), strconv.Itoa(p.Port))
}

type Registry struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]Peer),
	}
}

// Upsert creates the peer on first sight and refreshes last-seen and address
// otherwise. The latest announcement always wins. Reports whether the peer
// was newly created.
func (r *Registry) Upsert(id string, ip net.IP, port int, hostname string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.peers[id]
	r.peers[id] = Peer{
		ID:       id,
		IP:       ip,
		Port:     port,
		Hostname: hostname,
		LastSeen: now,
	}

	return !exists
}

func (r *Registry) Get(id string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peer, found := r.peers[id]
	return peer, found
}

// Snapshot returns a point-in-time copy of all peers, sorted by ID.
// Callers never observe concurrent mutation through the returned slice.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.peers)
}

// RemoveStale drops every peer whose last announcement is at least timeout
// old and returns the removed identities. An upsert racing with the sweep
// lands either before the check or after the whole sweep, never in between.
func (r *Registry) RemoveStale(now time.Time, timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, p := range r.peers {
		if now.Sub(p.LastSeen) >= timeout {
			delete(r.peers, id)
			removed = append(removed, id)
		}
	}

	return removed
}
