// Package memory provides an mq engine which keeps messages in in-process queues.
//
// A URI of the form mem:<queue> (or mem://<queue>) names a queue on the engine's Broker.
// Outgoing messages are buffered on the connection when sent and moved onto their
// destination queue by Deliver. Importing the package registers the engine for the
// "mem" scheme against DefaultBroker.
package memory

import (
	"context"

	"github.com/jacklaaa89/mq"
)

// Scheme the scheme the engine is registered under.
const Scheme = "mem"

// DefaultBroker the broker used by the builtin engine.
var DefaultBroker = NewBroker()

func init() {
	mq.RegisterBuiltin(Scheme, &Engine{Broker: DefaultBroker})
}

// Engine constructs connections to queues on Broker.
type Engine struct {
	Broker *Broker
}

// Construct implements mq.Constructor.
func (e *Engine) Construct(uri string) (mq.Backend, error) {
	b := e.Broker
	if b == nil {
		b = DefaultBroker
	}

	return &connection{broker: b, uri: uri, name: queueName(uri)}, nil
}

// connection the backend of a single mq.Connection.
type connection struct {
	broker  *Broker
	uri     string
	name    string
	state   mq.State
	pending []*envelope // sent but not yet delivered.
}

func (c *connection) ConnectRecv(context.Context) error {
	return c.attach(mq.Recv)
}

func (c *connection) ConnectSend(context.Context) error {
	return c.attach(mq.Send)
}

// attach moves a disconnected connection to state.
func (c *connection) attach(state mq.State) error {
	if c.state != mq.Disconnected {
		return mq.ErrInvalidState
	}

	c.state = state
	return nil
}

// Disconnect drops anything which has not been delivered.
func (c *connection) Disconnect() error {
	c.state = mq.Disconnected
	c.pending = nil
	return nil
}

// Next waits for a message on the connection's queue.
func (c *connection) Next(ctx context.Context) (mq.MessageBackend, error) {
	if c.state != mq.Recv {
		return nil, mq.ErrInvalidState
	}

	e, err := c.broker.queue(c.name).pop(ctx)
	if err != nil {
		return nil, err
	}

	return &message{conn: c, env: e, incoming: true}, nil
}

// Deliver moves every pending message onto its destination queue.
func (c *connection) Deliver(ctx context.Context) error {
	if c.state != mq.Send {
		return mq.ErrInvalidState
	}

	for i, e := range c.pending {
		if err := ctx.Err(); err != nil {
			c.pending = c.pending[i:]
			return err
		}
		c.broker.queue(queueName(e.address)).push(e, false)
	}

	c.pending = nil
	return nil
}

func (c *connection) Create() (mq.MessageBackend, error) {
	return &message{conn: c, env: &envelope{}}, nil
}

func (c *connection) Release() error {
	return c.Disconnect()
}

// message the backend of a single mq.Message.
type message struct {
	conn     *connection
	env      *envelope
	incoming bool
}

// Accept consumes the message.
func (m *message) Accept() error {
	if !m.incoming {
		return mq.ErrInvalidState
	}
	return nil
}

// Reject drops the message, the memory engine has nowhere to dead-letter it.
func (m *message) Reject() error {
	if !m.incoming {
		return mq.ErrInvalidState
	}
	return nil
}

// Pass puts the message back at the head of the queue it came from.
func (m *message) Pass() error {
	if !m.incoming {
		return mq.ErrInvalidState
	}

	m.conn.broker.queue(m.conn.name).push(m.env, true)
	return nil
}

// Send buffers the message on the connection until the next Deliver.
func (m *message) Send(_ context.Context, partition string) error {
	if m.incoming || m.conn.state != mq.Send {
		return mq.ErrInvalidState
	}

	m.env.partition = partition
	m.conn.pending = append(m.conn.pending, m.env)
	return nil
}

func (m *message) SetType(typ string) error {
	return m.outgoing(func(e *envelope) { e.typ = typ })
}

func (m *message) Type() string { return m.env.typ }

func (m *message) SetSubject(subject string) error {
	return m.outgoing(func(e *envelope) { e.subject = subject })
}

func (m *message) Subject() string { return m.env.subject }

func (m *message) SetAddress(address string) error {
	return m.outgoing(func(e *envelope) { e.address = address })
}

func (m *message) Address() string { return m.env.address }

func (m *message) Body() []byte { return m.env.body }

func (m *message) AddBytes(b []byte) error {
	return m.outgoing(func(e *envelope) { e.body = append(e.body, b...) })
}

// Partition returns the partition the message was sent with.
func (m *message) Partition() string { return m.env.partition }

func (m *message) Release() error { return nil }

// outgoing applies fn to the envelope of an outgoing message.
func (m *message) outgoing(fn func(e *envelope)) error {
	if m.incoming {
		return mq.ErrInvalidState
	}

	fn(m.env)
	return nil
}
