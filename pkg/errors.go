package pkg

import "errors"

var (
	// ErrNotConnected is returned when a connection is used before it
	// has been accepted, or after it has been closed.
	ErrNotConnected = errors.New("connection is not accepted")

	// ErrPeerClosed marks an expected peer-initiated close. It drives
	// teardown and is never surfaced as an application error.
	ErrPeerClosed = errors.New("peer closed connection")

	// ErrRoomClosed is returned by Connect after the room has been
	// closed.
	ErrRoomClosed = errors.New("room is closed")
)
