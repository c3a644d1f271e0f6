package pkg

import (
	"context"
	"sync"
)

// outbox is the FIFO queue of pending broadcasts. It is unbounded so a
// push never blocks the caller against a slow publisher. The queue
// belongs to the room, not the publisher: messages pushed while no
// publisher is running stay queued and are drained after the next start.
type outbox struct {
	lock  sync.Mutex
	queue []Message
	wake  chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

func (o *outbox) push(msg Message) {
	o.lock.Lock()
	o.queue = append(o.queue, msg)
	o.lock.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// pop dequeues the next message, blocking until one is available or ctx
// is cancelled. It returns false on cancellation, leaving any remaining
// messages queued for the next publisher.
func (o *outbox) pop(ctx context.Context) (Message, bool) {
	for {
		select {
		case <-ctx.Done():
			return Message{}, false
		default:
		}

		o.lock.Lock()
		if len(o.queue) > 0 {
			msg := o.queue[0]
			o.queue = o.queue[1:]
			o.lock.Unlock()
			return msg, true
		}
		o.lock.Unlock()

		select {
		case <-ctx.Done():
			return Message{}, false
		case <-o.wake:
		}
	}
}

func (o *outbox) len() int {
	o.lock.Lock()
	defer o.lock.Unlock()

	return len(o.queue)
}
