package pkg

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// dispatch reads frames from one connection and routes each to the
// registered handler until the peer disconnects or a handler fails.
// Handler invocations for a single connection never overlap: the next
// frame is not read until the previous handler returns.
func (r *Room) dispatch(conn Conn) error {
	fields := log.Fields{"conn": conn.ID()}

	for {
		if conn.State() != StateConnected {
			return fmt.Errorf("receive before accept: %w", ErrNotConnected)
		}

		frame, err := conn.Receive()
		if err != nil {
			if errors.Is(err, ErrPeerClosed) {
				log.WithFields(fields).Info("Peer disconnected")
			} else {
				log.WithFields(fields).Warn("Receive failed: ", err)
			}
			// Either way the connection is gone; removal is silent.
			return nil
		}

		RoomFramesCounter.Inc()

		fn, msg, ok := r.resolveHandler(frame, fields)
		if !ok {
			RoomDroppedFramesCounter.Inc()
			continue
		}

		if err := fn(r, conn, msg); err != nil {
			log.WithFields(fields).Error("Receive handler failed: ", err)
			return fmt.Errorf("receive handler: %w", err)
		}
	}
}

// resolveHandler picks the handler for a frame: the exact-kind handler
// first, else the JSON handler with the payload decoded, else no handler
// and the frame is dropped. A frame that fails to decode when the JSON
// handler is the only match is logged and dropped; the connection stays
// open.
func (r *Room) resolveHandler(frame Frame, fields log.Fields) (ReceiveFunc, Message, bool) {
	var raw []byte

	switch frame.Kind {
	case KindText:
		if fn, ok := r.hooks.receive[KindText]; ok {
			return fn, Message{Kind: KindText, Text: frame.Text}, true
		}
		raw = []byte(frame.Text)
	case KindBytes:
		if fn, ok := r.hooks.receive[KindBytes]; ok {
			return fn, Message{Kind: KindBytes, Data: frame.Data}, true
		}
		raw = frame.Data
	default:
		return nil, Message{}, false
	}

	fn, ok := r.hooks.receive[KindJSON]
	if !ok {
		return nil, Message{}, false
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		log.WithFields(fields).Warn("Dropping undecodable frame: ", err)
		return nil, Message{}, false
	}

	return fn, Message{Kind: KindJSON, Value: value}, true
}
