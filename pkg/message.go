package pkg

// MessageKind classifies both inbound frames and outbound broadcasts.
type MessageKind int

const (
	KindText MessageKind = iota
	KindBytes
	KindJSON
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindJSON:
		return "json"
	}
	return "unknown"
}

// Phase selects the point around connect and disconnect at which a
// lifecycle hook runs.
type Phase int

const (
	Before Phase = iota
	After
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	}
	return "unknown"
}

// Frame is one inbound wire frame. Only KindText and KindBytes arrive on
// the wire; KindJSON is produced by decoding one of those during dispatch.
type Frame struct {
	Kind MessageKind
	Text string
	Data []byte
}

// Message carries one payload through the room, either to a receive
// handler or through the outbox to every member. Exactly one of Text,
// Data or Value is set, according to Kind.
type Message struct {
	Kind  MessageKind
	Text  string
	Data  []byte
	Value any
}
