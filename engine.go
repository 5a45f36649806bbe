package mq

import "context"

// Constructor creates the engine side of a new, disconnected connection for a URI.
//
// Constructors are compared by identity when unregistering, so implementations are
// expected to be pointer types.
type Constructor interface {
	Construct(uri string) (Backend, error)
}

// Backend represents the engine side of a connection.
//
// The Connection which wraps a Backend tracks state and errors and gates every
// call on the state machine, but engines are still expected to return ErrInvalidState
// when called in the wrong state rather than silently succeeding.
type Backend interface {
	// ConnectRecv attaches to the queue for receiving messages.
	ConnectRecv(ctx context.Context) error
	// ConnectSend attaches to the queue for sending messages.
	ConnectSend(ctx context.Context) error
	// Disconnect detaches from the queue, it must be safe to call when already detached.
	Disconnect() error
	// Next waits for the next incoming message.
	Next(ctx context.Context) (MessageBackend, error)
	// Deliver flushes any buffered outgoing messages.
	Deliver(ctx context.Context) error
	// Create creates a new outgoing message.
	Create() (MessageBackend, error)
	// Release disconnects and frees any resources, the backend is not used afterwards.
	Release() error
}

// MessageBackend represents the engine side of a message.
type MessageBackend interface {
	// Accept acknowledges an incoming message as processed.
	Accept() error
	// Reject rejects an incoming message.
	Reject() error
	// Pass hands an incoming message back to the queue without processing it.
	Pass() error
	// Send queues an outgoing message for delivery, partition is empty when there is none.
	Send(ctx context.Context, partition string) error
	// SetType sets the content type of an outgoing message.
	SetType(typ string) error
	// Type returns the content type of the message.
	Type() string
	// SetSubject sets the subject of an outgoing message.
	SetSubject(subject string) error
	// Subject returns the subject of the message.
	Subject() string
	// SetAddress sets the destination of an outgoing message.
	SetAddress(address string) error
	// Address returns the destination of an outgoing message or the source of an incoming one.
	Address() string
	// Body returns the message body.
	Body() []byte
	// AddBytes appends b to the body of an outgoing message.
	AddBytes(b []byte) error
	// Release frees any resources held by the message.
	Release() error
}

// UnsupportedBackend can be embedded in engines which only implement part of Backend,
// every method returns ErrUnsupported.
type UnsupportedBackend struct{}

func (UnsupportedBackend) ConnectRecv(context.Context) error { return ErrUnsupported }
func (UnsupportedBackend) ConnectSend(context.Context) error { return ErrUnsupported }
func (UnsupportedBackend) Disconnect() error { return nil }
func (UnsupportedBackend) Deliver(context.Context) error { return ErrUnsupported }
func (UnsupportedBackend) Create() (MessageBackend, error) { return nil, ErrUnsupported }
func (UnsupportedBackend) Release() error { return nil }
func (UnsupportedBackend) Next(context.Context) (MessageBackend, error) {
	return nil, ErrUnsupported
}

// UnsupportedMessage can be embedded in engine messages which only implement part of
// MessageBackend, every mutator returns ErrUnsupported and every accessor a zero value.
type UnsupportedMessage struct{}

func (UnsupportedMessage) Accept() error { return ErrUnsupported }
func (UnsupportedMessage) Reject() error { return ErrUnsupported }
func (UnsupportedMessage) Pass() error { return ErrUnsupported }
func (UnsupportedMessage) Send(context.Context, string) error { return ErrUnsupported }
func (UnsupportedMessage) SetType(string) error { return ErrUnsupported }
func (UnsupportedMessage) Type() string { return "" }
func (UnsupportedMessage) SetSubject(string) error { return ErrUnsupported }
func (UnsupportedMessage) Subject() string { return "" }
func (UnsupportedMessage) SetAddress(string) error { return ErrUnsupported }
func (UnsupportedMessage) Address() string { return "" }
func (UnsupportedMessage) Body() []byte { return nil }
func (UnsupportedMessage) AddBytes([]byte) error { return ErrUnsupported }
func (UnsupportedMessage) Release() error { return nil }

// Cluster represents an externally managed grouping of queues which supplies a default partition.
type Cluster interface {
	// DefaultPartition returns the partition a connection to uri should use, an empty string means none.
	DefaultPartition(uri string) (string, error)
}
