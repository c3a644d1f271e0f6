package pkg

// ConnState is the connectivity state of a member connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is one bidirectional member connection. The host hands a Conn that
// is past the transport handshake but not yet accepted to Room.Connect;
// the room performs the semantic accept itself and never constructs a
// Conn on its own.
type Conn interface {
	// ID identifies the connection for logging.
	ID() string

	State() ConnState

	// Accept transitions the connection from Connecting to Connected.
	Accept() error

	// Receive blocks until the next text or bytes frame arrives. It
	// returns an error wrapping ErrPeerClosed when the peer disconnects.
	Receive() (Frame, error)

	SendText(msg string) error
	SendBytes(msg []byte) error
	SendJSON(v any) error

	Close() error
}
