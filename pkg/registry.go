package pkg

import "sync"

// registry is the room's membership set. The per-connection loops add and
// remove concurrently with snapshot reads from the publisher; snapshots
// are copy-on-read so an in-progress broadcast iterates a stable set.
type registry struct {
	lock  sync.RWMutex
	conns []Conn
}

func newRegistry() *registry {
	return &registry{conns: make([]Conn, 0)}
}

// add registers a connection. Adding a current member is a no-op.
func (r *registry) add(conn Conn) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, c := range r.conns {
		if c == conn {
			return
		}
	}

	r.conns = append(r.conns, conn)
	RoomMembersGauge.Inc()
}

// remove drops a connection. Removing a non-member is a no-op.
func (r *registry) remove(conn Conn) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			RoomMembersGauge.Dec()
			return
		}
	}
}

func (r *registry) contains(conn Conn) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, c := range r.conns {
		if c == conn {
			return true
		}
	}
	return false
}

// snapshot returns a point-in-time copy of the membership.
func (r *registry) snapshot() []Conn {
	r.lock.RLock()
	defer r.lock.RUnlock()

	conns := make([]Conn, len(r.conns))
	copy(conns, r.conns)
	return conns
}

func (r *registry) empty() bool {
	return r.size() == 0
}

func (r *registry) size() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.conns)
}
