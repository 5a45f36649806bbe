package mq

// State represents the lifecycle state of a connection.
type State int

const (
	// Disconnected the initial state, the connection is not attached to a queue.
	Disconnected State = iota
	// Recv the connection is attached to a queue for receiving messages.
	Recv
	// Send the connection is attached to a queue for sending messages.
	Send
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Recv:
		return "recv"
	case Send:
		return "send"
	default:
		return "unknown"
	}
}

// Kind represents the direction of a message, it never changes once the message is created.
type Kind int

const (
	// Incoming a message which was received from a queue.
	Incoming Kind = iota + 1
	// Outgoing a message which was created to be sent to a queue.
	Outgoing
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Incoming:
		return "incoming"
	case Outgoing:
		return "outgoing"
	default:
		return "unknown"
	}
}
