package pkg

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Room is a dynamically-sized group of live websocket members sharing a
// handler configuration and a broadcast queue. Construct one explicitly
// and hand it to whatever routes incoming connections; it has no global
// state. A Room is created empty and lives until Close.
type Room struct {
	registry *registry
	outbox   *outbox
	hooks    *hooks

	lock     sync.Mutex
	pub      *publisher
	removing map[Conn]struct{}
	closed   bool
}

// NewRoom returns an empty room with no handlers registered.
func NewRoom() *Room {
	return &Room{
		registry: newRegistry(),
		outbox:   newOutbox(),
		hooks:    newHooks(),
		removing: make(map[Conn]struct{}),
	}
}

// OnReceive registers the handler for inbound messages of the given kind,
// replacing any previous handler for that kind. Registration is normally
// done once, before any connection arrives.
func (r *Room) OnReceive(kind MessageKind, fn ReceiveFunc) *Room {
	r.hooks.receive[kind] = fn
	return r
}

// OnConnect registers the lifecycle hook for the given phase around
// connect, replacing any previous hook for that phase.
func (r *Room) OnConnect(phase Phase, fn HookFunc) *Room {
	r.hooks.connect[phase] = fn
	return r
}

// OnDisconnect registers the lifecycle hook for the given phase around
// disconnect, replacing any previous hook for that phase.
func (r *Room) OnDisconnect(phase Phase, fn HookFunc) *Room {
	r.hooks.disconnect[phase] = fn
	return r
}

// PushText enqueues a text broadcast to every current member. The enqueue
// never blocks; the publisher drains the queue in push order. Messages
// pushed while the room has no members are retained and delivered once
// the next member connects. A member that fails a send is closed and
// dropped from the room without the disconnect hooks running; only the
// Connect-driven teardown path fires them.
func (r *Room) PushText(msg string) {
	r.push(Message{Kind: KindText, Text: msg})
}

// PushBytes enqueues a binary broadcast to every current member. See
// PushText for queueing and failure semantics.
func (r *Room) PushBytes(msg []byte) {
	r.push(Message{Kind: KindBytes, Data: msg})
}

// PushJSON enqueues a broadcast of the JSON encoding of v to every
// current member. See PushText for queueing and failure semantics.
func (r *Room) PushJSON(v any) {
	r.push(Message{Kind: KindJSON, Value: v})
}

func (r *Room) push(msg Message) {
	r.lock.Lock()
	closed := r.closed
	r.lock.Unlock()

	if closed {
		return
	}

	r.outbox.push(msg)
}

// Size returns the current number of members.
func (r *Room) Size() int {
	return r.registry.size()
}

// Connect runs a connection's entire room lifetime: before-connect hook,
// semantic accept, registration, after-connect hook, then the dispatch
// loop until disconnect, then teardown. It blocks until the connection
// ends, so the host must run it on its own goroutine per connection.
func (r *Room) Connect(conn Conn) error {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return ErrRoomClosed
	}
	if r.pub == nil {
		r.pub = r.startPublisher()
	}
	r.lock.Unlock()

	r.runHook("connect", Before, r.hooks.connect[Before], conn)

	if err := conn.Accept(); err != nil {
		r.stopPublisherIfEmpty()
		return fmt.Errorf("accept connection: %w", err)
	}

	r.registry.add(conn)

	// Re-check under the lock now that the connection is a member. A
	// disconnect that emptied the room between the entry check and the
	// registration above has stopped the publisher; restart it. A Close
	// that ran in that window would otherwise miss this member entirely.
	if !r.ensurePublisher() {
		r.registry.remove(conn)
		_ = conn.Close()
		return ErrRoomClosed
	}

	log.WithFields(log.Fields{"conn": conn.ID()}).Info("Member joined")

	r.runHook("connect", After, r.hooks.connect[After], conn)

	err := r.dispatch(conn)

	r.remove(conn, conn.State() == StateClosed)

	return err
}

// remove tears one member down: before-disconnect hook, active close
// unless the peer already closed, registry removal, publisher stop if the
// room emptied, after-disconnect hook. Teardown runs exactly once per
// member even when the Connect loop and Close race; a member the
// publisher already dropped is not torn down again here.
func (r *Room) remove(conn Conn, alreadyClosed bool) {
	if !r.claimRemoval(conn) {
		return
	}
	defer r.finishRemoval(conn)

	fields := log.Fields{"conn": conn.ID()}

	r.runHook("disconnect", Before, r.hooks.disconnect[Before], conn)

	if !alreadyClosed {
		if err := conn.Close(); err != nil {
			log.WithFields(fields).Warn("Failed to close connection: ", err)
		}
	}

	r.registry.remove(conn)
	log.WithFields(fields).Info("Member left")

	r.stopPublisherIfEmpty()

	r.runHook("disconnect", After, r.hooks.disconnect[After], conn)
}

// Close removes every current member and stops the publisher. The room
// rejects new connections afterwards.
func (r *Room) Close() {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return
	}
	r.closed = true
	r.lock.Unlock()

	for _, conn := range r.registry.snapshot() {
		r.remove(conn, false)
	}

	r.lock.Lock()
	p := r.pub
	r.pub = nil
	if p != nil {
		p.cancel()
	}
	r.lock.Unlock()

	if p != nil {
		<-p.done
	}
}

// claimRemoval marks a current member as being torn down. It fails for a
// connection that is no longer a member or whose teardown is already in
// progress.
func (r *Room) claimRemoval(conn Conn) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, busy := r.removing[conn]; busy {
		return false
	}
	if !r.registry.contains(conn) {
		return false
	}

	r.removing[conn] = struct{}{}
	return true
}

func (r *Room) finishRemoval(conn Conn) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.removing, conn)
}

// stopPublisherIfEmpty performs the members-empty transition. The
// publisher is detached and cancelled under the lock, but waited on
// outside it: the publisher takes the same lock for its own empty
// transition, so waiting under the lock would deadlock against it.
func (r *Room) stopPublisherIfEmpty() {
	r.lock.Lock()
	if r.pub == nil || !r.registry.empty() {
		r.lock.Unlock()
		return
	}
	p := r.pub
	r.pub = nil
	p.cancel()
	r.lock.Unlock()

	<-p.done
}

// ensurePublisher starts the publisher if the room has members but no
// running publisher. It reports false when the room has been closed, in
// which case the caller must not remain a member.
func (r *Room) ensurePublisher() bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return false
	}
	if r.pub == nil && !r.registry.empty() {
		r.pub = r.startPublisher()
	}
	return true
}

// selfStopIfEmpty is the empty transition taken from inside the publisher
// itself, which cannot wait on its own exit. It reports whether the
// publisher should return: either it detached itself here, or a
// concurrent stop already detached it.
func (r *Room) selfStopIfEmpty(p *publisher) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.pub != p {
		return true
	}
	if !r.registry.empty() {
		return false
	}

	p.cancel()
	r.pub = nil
	return true
}

// runHook invokes a lifecycle hook and waits for it to complete. Hook
// errors are logged and swallowed so the surrounding registry mutation is
// never skipped.
func (r *Room) runHook(event string, phase Phase, fn HookFunc, conn Conn) {
	if fn == nil {
		return
	}

	if err := fn(r, conn); err != nil {
		log.WithFields(log.Fields{
			"conn": conn.ID(),
			"hook": fmt.Sprintf("%s-%s", phase, event),
		}).Error("Lifecycle hook failed: ", err)
	}
}
