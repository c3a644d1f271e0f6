package pkg

// ReceiveFunc handles one inbound message on behalf of a connection. An
// error terminates that connection's dispatch loop and proceeds to
// teardown.
type ReceiveFunc func(room *Room, conn Conn, msg Message) error

// HookFunc runs at one lifecycle point around connect or disconnect. A
// hook error is logged and swallowed; it never skips the registry
// mutation it surrounds.
type HookFunc func(room *Room, conn Conn) error

// hooks holds at most one handler per message kind and per lifecycle
// point. Registration overwrites. The maps are written during setup and
// read by the dispatch loops; registering after traffic has started is
// the caller's race to manage.
type hooks struct {
	receive    map[MessageKind]ReceiveFunc
	connect    map[Phase]HookFunc
	disconnect map[Phase]HookFunc
}

func newHooks() *hooks {
	return &hooks{
		receive:    make(map[MessageKind]ReceiveFunc),
		connect:    make(map[Phase]HookFunc),
		disconnect: make(map[Phase]HookFunc),
	}
}
