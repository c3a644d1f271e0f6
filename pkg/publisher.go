package pkg

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// publisher is the handle to the single background task per room that
// drains the outbox. It exists exactly while the room has members. The
// room cancels it under the room lock and waits for done outside the
// lock, so the task itself can take the lock for its own empty
// transition.
type publisher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (r *Room) startPublisher() *publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &publisher{cancel: cancel, done: make(chan struct{})}

	go r.publish(ctx, p)

	return p
}

// publish dequeues one message at a time and fans it out to a snapshot of
// the current membership. Two pushes A then B reach every snapshot member
// for A before anyone receives B. A message whose fan-out is already in
// flight at cancellation is delivered to its whole snapshot before the
// task returns.
func (r *Room) publish(ctx context.Context, p *publisher) {
	defer close(p.done)

	for {
		msg, ok := r.outbox.pop(ctx)
		if !ok {
			return
		}

		RoomBroadcastsCounter.Inc()

		for _, conn := range r.registry.snapshot() {
			if err := sendMessage(conn, msg); err != nil {
				RoomSendFailuresCounter.Inc()
				log.WithFields(log.Fields{
					"conn": conn.ID(),
				}).Warn("Dropping member after failed send: ", err)

				// Not the Connect-driven teardown path, so no
				// disconnect hooks fire here. The member's own
				// dispatch loop observes the close but cannot claim
				// teardown for a connection that is no longer a
				// member.
				_ = conn.Close()
				r.registry.remove(conn)

				// Dropping the last member empties the room; perform
				// the stop transition ourselves, since nothing else
				// will.
				if r.selfStopIfEmpty(p) {
					return
				}
				continue
			}

			RoomDeliveriesCounter.Inc()
		}
	}
}

func sendMessage(conn Conn, msg Message) error {
	switch msg.Kind {
	case KindText:
		return conn.SendText(msg.Text)
	case KindBytes:
		return conn.SendBytes(msg.Data)
	case KindJSON:
		return conn.SendJSON(msg.Value)
	}
	return nil
}
