package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeTimeout bounds a single send so a stalled peer cannot hang the
// publisher loop indefinitely.
const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebsocketConn adapts a gorilla websocket connection to the Conn
// interface. Upgrade leaves it in the Connecting state; the room performs
// the semantic accept.
type WebsocketConn struct {
	id        uuid.UUID
	remote    string
	conn      *websocket.Conn
	state     atomic.Int32
	closeOnce sync.Once

	// The publisher and a receive handler may send on the same
	// connection concurrently; gorilla allows one writer at a time.
	writeLock sync.Mutex
}

// Upgrade upgrades an HTTP request to a websocket connection ready to be
// handed to Room.Connect.
func Upgrade(w http.ResponseWriter, req *http.Request) (*WebsocketConn, error) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}

	return NewWebsocketConn(conn, req.RemoteAddr), nil
}

// NewWebsocketConn wraps an already-upgraded websocket connection.
func NewWebsocketConn(conn *websocket.Conn, remote string) *WebsocketConn {
	c := &WebsocketConn{
		id:     uuid.New(),
		remote: remote,
		conn:   conn,
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *WebsocketConn) ID() string {
	return c.id.String()
}

// RemoteAddr returns the peer address for logging.
func (c *WebsocketConn) RemoteAddr() string {
	return c.remote
}

func (c *WebsocketConn) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *WebsocketConn) Accept() error {
	if !c.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected)) {
		return fmt.Errorf("accept connection in state %s: %w", c.State(), ErrNotConnected)
	}
	return nil
}

// Receive blocks for the next text or binary frame. Control frames are
// handled by gorilla and skipped here. Close frames from the peer and
// reads against a locally closed socket both report ErrPeerClosed.
func (c *WebsocketConn) Receive() (Frame, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			// The socket is unusable after a read error; release it.
			_ = c.Close()
			if isClosedError(err) {
				return Frame{}, fmt.Errorf("read frame: %w", ErrPeerClosed)
			}
			return Frame{}, fmt.Errorf("read frame: %w", err)
		}

		switch typ {
		case websocket.TextMessage:
			return Frame{Kind: KindText, Text: string(data)}, nil
		case websocket.BinaryMessage:
			return Frame{Kind: KindBytes, Data: data}, nil
		}
	}
}

func (c *WebsocketConn) SendText(msg string) error {
	return c.write(websocket.TextMessage, []byte(msg))
}

func (c *WebsocketConn) SendBytes(msg []byte) error {
	return c.write(websocket.BinaryMessage, msg)
}

func (c *WebsocketConn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode JSON message: %w", err)
	}
	return c.write(websocket.TextMessage, data)
}

func (c *WebsocketConn) write(typ int, data []byte) error {
	if c.State() != StateConnected {
		return fmt.Errorf("send in state %s: %w", c.State(), ErrNotConnected)
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return c.conn.WriteMessage(typ, data)
}

// Close is idempotent; only the first call closes the underlying socket.
func (c *WebsocketConn) Close() error {
	c.state.Store(int32(StateClosed))

	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}

func isClosedError(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) ||
		errors.Is(err, net.ErrClosed)
}
