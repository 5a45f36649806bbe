package rabbitmq

import (
	"context"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/jacklaaa89/mq"
)

// message implements mq.MessageBackend, incoming messages wrap a delivery while
// outgoing messages build up a publishing.
type message struct {
	conn *connection
	kind mq.Kind

	amqp091.Delivery // set on incoming messages.

	publishing amqp091.Publishing // set on outgoing messages.
	address    string             // the destination of an outgoing message.
}

// Accept attempts to acknowledge a message.
func (m *message) Accept() error {
	if m.kind != mq.Incoming {
		return mq.ErrInvalidState
	}
	return toError("ack", m.Delivery.Ack(false))
}

// Reject attempts to reject a message without requeueing it.
func (m *message) Reject() error {
	if m.kind != mq.Incoming {
		return mq.ErrInvalidState
	}
	return toError("reject", m.Delivery.Reject(false))
}

// Pass attempts to negatively acknowledge a message, returning it to the queue.
func (m *message) Pass() error {
	if m.kind != mq.Incoming {
		return mq.ErrInvalidState
	}
	return toError("nack", m.Delivery.Nack(false, true))
}

// Send queues the message on the connection, it is published by the next Deliver.
// the content type is detected from the body when it was not set.
func (m *message) Send(_ context.Context, partition string) error {
	if m.kind != mq.Outgoing || m.conn.state != mq.Send {
		return mq.ErrInvalidState
	}

	p := m.publishing
	if p.ContentType == "" {
		p.ContentType = mimetype.Detect(p.Body).String()
	}
	if partition != "" {
		p.Headers = withHeader(cloneTable(p.Headers), HeaderPartition, partition)
	}

	p.MessageId = uuid.NewString()
	p.Timestamp = time.Now()
	p.DeliveryMode = amqp091.Persistent

	m.conn.pending = append(m.conn.pending, outgoing{routingKey: routingKey(m.address), msg: p})
	return nil
}

// SetType sets the content type.
func (m *message) SetType(typ string) error {
	return m.outgoing(func(p *amqp091.Publishing) { p.ContentType = typ })
}

// Type returns the content type.
func (m *message) Type() string {
	if m.kind == mq.Incoming {
		return m.Delivery.ContentType
	}
	return m.publishing.ContentType
}

// SetSubject sets the subject header.
func (m *message) SetSubject(subject string) error {
	return m.outgoing(func(p *amqp091.Publishing) { p.Headers = withHeader(p.Headers, HeaderSubject, subject) })
}

// Subject returns the subject header.
func (m *message) Subject() string {
	h := m.publishing.Headers
	if m.kind == mq.Incoming {
		h = m.Delivery.Headers
	}

	s, _ := h[HeaderSubject].(string)
	return s
}

// SetAddress sets the destination, either an amqp URI or a routing key.
func (m *message) SetAddress(address string) error {
	if m.kind != mq.Outgoing {
		return mq.ErrInvalidState
	}

	m.address = address
	return nil
}

// Address returns the destination of an outgoing message, or the URI of the connection
// an incoming message was consumed from.
func (m *message) Address() string {
	if m.kind == mq.Incoming {
		return m.conn.uri
	}
	return m.address
}

// Body returns the message body.
func (m *message) Body() []byte {
	if m.kind == mq.Incoming {
		return m.Delivery.Body
	}
	return m.publishing.Body
}

// AddBytes appends b to the body.
func (m *message) AddBytes(b []byte) error {
	return m.outgoing(func(p *amqp091.Publishing) { p.Body = append(p.Body, b...) })
}

// Release drops the message. an incoming message which was never settled stays
// unacknowledged and is redelivered by the broker once the channel closes.
func (m *message) Release() error { return nil }

// outgoing applies fn to the publishing of an outgoing message.
func (m *message) outgoing(fn func(p *amqp091.Publishing)) error {
	if m.kind != mq.Outgoing {
		return mq.ErrInvalidState
	}

	fn(&m.publishing)
	return nil
}

// withHeader sets key on h, allocating h if needed.
func withHeader(h amqp091.Table, key string, value interface{}) amqp091.Table {
	if h == nil {
		h = amqp091.Table{}
	}

	h[key] = value
	return h
}

// cloneTable returns a shallow copy of h.
func cloneTable(h amqp091.Table) amqp091.Table {
	if h == nil {
		return nil
	}

	c := make(amqp091.Table, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}
