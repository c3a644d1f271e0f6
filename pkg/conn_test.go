package pkg

import (
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn for driving the room without a network.
// Tests feed inbound frames through the frames channel and read back
// everything the room sent.
type fakeConn struct {
	id     string
	frames chan Frame
	quit   chan struct{}

	peerOnce sync.Once
	quitOnce sync.Once

	lock      sync.Mutex
	state     ConnState
	sent      []Message
	acceptErr error
	sendErr   error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{
		id:     id,
		state:  StateConnecting,
		frames: make(chan Frame, 16),
		quit:   make(chan struct{}),
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) State() ConnState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *fakeConn) setState(s ConnState) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = s
}

func (c *fakeConn) Accept() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.acceptErr != nil {
		return c.acceptErr
	}
	c.state = StateConnected
	return nil
}

func (c *fakeConn) Receive() (Frame, error) {
	select {
	case frame, ok := <-c.frames:
		if !ok {
			c.setState(StateClosed)
			return Frame{}, ErrPeerClosed
		}
		return frame, nil
	case <-c.quit:
		return Frame{}, ErrPeerClosed
	}
}

func (c *fakeConn) SendText(msg string) error {
	return c.record(Message{Kind: KindText, Text: msg})
}

func (c *fakeConn) SendBytes(msg []byte) error {
	return c.record(Message{Kind: KindBytes, Data: msg})
}

func (c *fakeConn) SendJSON(v any) error {
	return c.record(Message{Kind: KindJSON, Value: v})
}

func (c *fakeConn) record(msg Message) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.setState(StateClosed)
	c.quitOnce.Do(func() { close(c.quit) })
	return nil
}

// peerClose simulates a graceful close initiated by the peer.
func (c *fakeConn) peerClose() {
	c.peerOnce.Do(func() { close(c.frames) })
}

func (c *fakeConn) sendText(msg string) {
	c.frames <- Frame{Kind: KindText, Text: msg}
}

func (c *fakeConn) sendBytes(msg []byte) {
	c.frames <- Frame{Kind: KindBytes, Data: msg}
}

func (c *fakeConn) sentMessages() []Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}

// --- helpers ----------------------------------------------------------------

// connect runs Connect on its own goroutine, as the host would, and
// returns a channel that yields Connect's result after teardown.
func connect(t *testing.T, room *Room, conn *fakeConn) <-chan error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- room.Connect(conn) }()

	return done
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for ", msg)
}

// waitDone waits for a Connect goroutine to finish and returns its error.
func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Connect to return")
		return nil
	}
}

func publisherRunning(r *Room) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.pub != nil
}
