package mq

import (
	"context"

	"go.uber.org/multierr"
)

// Option configures a connection as it is opened.
type Option func(c *Connection) error

// WithCluster attaches a cluster to the connection before it connects, see Connection.SetCluster.
func WithCluster(cl Cluster) Option {
	return func(c *Connection) error {
		return c.SetCluster(cl)
	}
}

// WithPartition sets the partition of the connection before it connects.
func WithPartition(p string) Option {
	return func(c *Connection) error {
		c.partition = p
		return nil
	}
}

// Connection represents one logical attachment to a queue, serviced by the engine
// registered for the scheme of its URI.
//
// A connection is owned by whoever created it and must not be used from multiple goroutines
// at once. Every operation resets the error state of the connection and records the error
// it returns, so Failed, Err and ErrMsg always describe the last operation performed on the
// connection or on one of its messages.
type Connection struct {
	backend Backend
	uri     string
	state   State
	err     errorSlot

	cluster   Cluster // not owned by the connection.
	partition string

	released bool
}

// Open creates a disconnected connection for uri using the engine registered for its scheme.
func (r *Registry) Open(uri string, opts ...Option) (*Connection, error) {
	ctor, err := r.Resolve(uri)
	if err != nil {
		return nil, err
	}

	b, err := ctor.Construct(uri)
	if err != nil {
		return nil, err
	}

	c := &Connection{backend: b, uri: uri}
	for _, opt := range opts {
		if err = opt(c); err != nil {
			return nil, multierr.Append(err, c.Release())
		}
	}

	return c, nil
}

// ConnectRecv opens a connection to uri for receiving messages.
func (r *Registry) ConnectRecv(ctx context.Context, uri string, opts ...Option) (*Connection, error) {
	return r.connect(ctx, uri, (*Connection).ConnectRecv, opts)
}

// ConnectSend opens a connection to uri for sending messages.
func (r *Registry) ConnectSend(ctx context.Context, uri string, opts ...Option) (*Connection, error) {
	return r.connect(ctx, uri, (*Connection).ConnectSend, opts)
}

// connect opens a connection and attaches it with fn, the connection is released if fn fails.
func (r *Registry) connect(
	ctx context.Context,
	uri string,
	fn func(c *Connection, ctx context.Context) error,
	opts []Option,
) (*Connection, error) {
	c, err := r.Open(uri, opts...)
	if err != nil {
		return nil, err
	}

	if err = fn(c, ctx); err != nil {
		_ = c.Release()
		return nil, err
	}

	return c, nil
}

// URI returns the URI the connection was opened with.
func (c *Connection) URI() string { return c.uri }

// State returns the current state of the connection.
func (c *Connection) State() State { return c.state }

// ConnectRecv attaches a disconnected connection for receiving.
func (c *Connection) ConnectRecv(ctx context.Context) error {
	return c.attach(ctx, Recv, c.backend.ConnectRecv)
}

// ConnectSend attaches a disconnected connection for sending.
func (c *Connection) ConnectSend(ctx context.Context) error {
	return c.attach(ctx, Send, c.backend.ConnectSend)
}

// attach moves the connection from Disconnected to state using fn.
func (c *Connection) attach(ctx context.Context, state State, fn func(ctx context.Context) error) error {
	if err := c.begin(); err != nil {
		return err
	}

	if c.state != Disconnected {
		return c.record(ErrInvalidState)
	}

	if err := fn(ctx); err != nil {
		return c.record(err)
	}

	c.state = state
	return nil
}

// Disconnect detaches the connection, it is a no-op when already disconnected.
// The connection is always left Disconnected, even if the engine reports an error.
func (c *Connection) Disconnect() error {
	if err := c.begin(); err != nil {
		return err
	}

	return c.record(c.disconnect())
}

// disconnect detaches the backend if attached.
func (c *Connection) disconnect() error {
	if c.state == Disconnected {
		return nil
	}

	c.state = Disconnected
	return c.backend.Disconnect()
}

// Release disconnects and frees the connection, it must not be used afterwards.
func (c *Connection) Release() error {
	if c == nil || c.released {
		return ErrReleased
	}

	err := multierr.Append(c.disconnect(), c.backend.Release())
	c.released = true
	c.cluster = nil
	c.err.set(err)
	return err
}

// SetCluster associates cl with the connection and sets the partition of the connection to the
// default partition cl reports for it. The partition is derived once, later changes to the
// cluster are not followed. A nil cl removes the association and the partition.
func (c *Connection) SetCluster(cl Cluster) error {
	if err := c.begin(); err != nil {
		return err
	}

	if cl == nil {
		c.cluster, c.partition = nil, ""
		return nil
	}

	p, err := cl.DefaultPartition(c.uri)
	if err != nil {
		return c.record(err)
	}

	c.cluster, c.partition = cl, p
	return nil
}

// Cluster returns the associated cluster, if any.
func (c *Connection) Cluster() Cluster { return c.cluster }

// SetPartition overrides the partition of the connection, an empty p means no partition.
func (c *Connection) SetPartition(p string) { c.partition = p }

// Partition returns the partition of the connection and whether it has one.
func (c *Connection) Partition() (string, bool) {
	return c.partition, c.partition != ""
}

// Next waits for the next message to arrive, the connection must be receiving.
func (c *Connection) Next(ctx context.Context) (*Message, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	if c.state != Recv {
		return nil, c.record(ErrInvalidState)
	}

	mb, err := c.backend.Next(ctx)
	if err != nil {
		return nil, c.record(err)
	}

	return &Message{backend: mb, conn: c, kind: Incoming}, nil
}

// Create creates a new outgoing message.
func (c *Connection) Create() (*Message, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	mb, err := c.backend.Create()
	if err != nil {
		return nil, c.record(err)
	}

	return &Message{backend: mb, conn: c, kind: Outgoing}, nil
}

// Deliver flushes any buffered outgoing messages, the connection must be sending.
func (c *Connection) Deliver(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}

	if c.state != Send {
		return c.record(ErrInvalidState)
	}

	return c.record(c.backend.Deliver(ctx))
}

// Failed whether the last operation left the connection in an error state.
func (c *Connection) Failed() bool { return c.err.failed() }

// Err returns the error recorded by the last operation, or nil.
func (c *Connection) Err() error { return c.err.err() }

// ErrMsg returns a description of the recorded error, "Success" if there is none.
// The text is rendered on first use and kept until the next operation.
func (c *Connection) ErrMsg() string { return c.err.message() }

// begin resets the error state ahead of an operation.
func (c *Connection) begin() error {
	if c.released {
		return ErrReleased
	}

	c.err.reset()
	return nil
}

// record stores err as the connection error and returns it.
func (c *Connection) record(err error) error {
	c.err.set(err)
	return err
}
