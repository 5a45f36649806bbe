package mq

import (
	"context"

	"go.uber.org/multierr"
)

// Message represents a single message, either received from or to be sent to a queue.
//
// Accept, Reject, Pass, Send and Release are terminal: once one of them has reached the
// engine the message is released and any later call returns ErrReleased.
// Errors are recorded against the owning connection.
type Message struct {
	backend MessageBackend
	conn    *Connection // the message never outlives this connection.
	kind    Kind

	// partition nil inherits the partition of the connection, an empty string forces none.
	partition *string
	addressed bool

	released bool
}

// Kind returns whether the message is incoming or outgoing.
func (m *Message) Kind() Kind { return m.kind }

// Connection returns the connection the message belongs to.
func (m *Message) Connection() *Connection { return m.conn }

// Accept acknowledges an incoming message as processed and releases it.
func (m *Message) Accept() error {
	return m.dispose(m.backend.Accept)
}

// Reject rejects an incoming message and releases it.
func (m *Message) Reject() error {
	return m.dispose(m.backend.Reject)
}

// Pass hands an incoming message back to the queue and releases it.
func (m *Message) Pass() error {
	return m.dispose(m.backend.Pass)
}

// dispose runs a terminal disposition on an incoming message.
func (m *Message) dispose(fn func() error) error {
	if err := m.begin(); err != nil {
		return err
	}

	if m.kind != Incoming {
		return m.conn.record(ErrInvalidState)
	}

	return m.conn.record(m.release(fn()))
}

// Send queues an outgoing message for delivery and releases it.
// If no address was set the URI of the connection is used as the destination.
// The connection must be sending.
func (m *Message) Send(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	if m.kind != Outgoing || m.conn.state != Send {
		return m.conn.record(ErrInvalidState)
	}

	if !m.addressed {
		if err := m.backend.SetAddress(m.conn.uri); err != nil {
			return m.conn.record(m.release(err))
		}
	}

	p, _ := m.Partition()
	return m.conn.record(m.release(m.backend.Send(ctx, p)))
}

// Release frees the message without disposing of it.
func (m *Message) Release() error {
	if err := m.begin(); err != nil {
		return err
	}

	return m.conn.record(m.release(nil))
}

// release releases the backend, combining err with any release failure.
func (m *Message) release(err error) error {
	m.released = true
	return multierr.Append(err, m.backend.Release())
}

// SetType sets the content type of an outgoing message.
func (m *Message) SetType(typ string) error {
	return m.mutate(func() error { return m.backend.SetType(typ) })
}

// Type returns the content type of the message.
func (m *Message) Type() string {
	if m.released {
		return ""
	}
	return m.backend.Type()
}

// SetSubject sets the subject of an outgoing message.
func (m *Message) SetSubject(subject string) error {
	return m.mutate(func() error { return m.backend.SetSubject(subject) })
}

// Subject returns the subject of the message.
func (m *Message) Subject() string {
	if m.released {
		return ""
	}
	return m.backend.Subject()
}

// SetAddress sets the destination of an outgoing message, replacing any previous destination.
func (m *Message) SetAddress(address string) error {
	return m.mutate(func() error {
		if err := m.backend.SetAddress(address); err != nil {
			return err
		}
		m.addressed = true
		return nil
	})
}

// Address returns the destination of an outgoing message or the source of an incoming one.
func (m *Message) Address() string {
	if m.released {
		return ""
	}
	return m.backend.Address()
}

// Body returns the message body.
func (m *Message) Body() []byte {
	if m.released {
		return nil
	}
	return m.backend.Body()
}

// Len returns the length of the message body in bytes.
func (m *Message) Len() int { return len(m.Body()) }

// AddBytes appends b to the body of an outgoing message.
func (m *Message) AddBytes(b []byte) error {
	return m.mutate(func() error { return m.backend.AddBytes(b) })
}

// SetPartition overrides the partition of the connection for this message.
// An empty p forces the message to have no partition, whatever the connection has.
func (m *Message) SetPartition(p string) {
	m.partition = &p
}

// ClearPartition removes any override so the message inherits the partition of its connection.
func (m *Message) ClearPartition() {
	m.partition = nil
}

// Partition returns the partition of the message and whether it has one.
func (m *Message) Partition() (string, bool) {
	if m.partition != nil {
		return *m.partition, *m.partition != ""
	}

	return m.conn.Partition()
}

// mutate runs fn against an outgoing message.
func (m *Message) mutate(fn func() error) error {
	if err := m.begin(); err != nil {
		return err
	}

	if m.kind != Outgoing {
		return m.conn.record(ErrInvalidState)
	}

	return m.conn.record(fn())
}

// begin checks the message and its connection are usable and resets the connection error.
func (m *Message) begin() error {
	if m.released {
		return ErrReleased
	}

	return m.conn.begin()
}
