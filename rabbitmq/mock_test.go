package rabbitmq

import (
	"context"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/jacklaaa89/mq"
)

type errorFunc func() error

type mockAMQPChannelHandlers struct {
	Close        errorFunc
	Qos          errorFunc
	Cancel       errorFunc
	IsClosed     func() bool
	QueueDeclare func() (amqp091.Queue, error)
	Publish      func(routingKey string, msg amqp091.Publishing) error
	Consume      func() (<-chan amqp091.Delivery, error)
	NotifyClose  func(ch chan *amqp091.Error) chan *amqp091.Error
}

// newDefaultAMQPChannelHandlers generates a default set of handlers.
func newDefaultAMQPChannelHandlers() mockAMQPChannelHandlers {
	return mockAMQPChannelHandlers{
		Close:        func() error { return nil },
		Qos:          func() error { return nil },
		Cancel:       func() error { return nil },
		IsClosed:     func() bool { return false },
		QueueDeclare: func() (amqp091.Queue, error) { return amqp091.Queue{}, nil },
		Publish:      func(string, amqp091.Publishing) error { return nil },
		Consume: func() (<-chan amqp091.Delivery, error) {
			// never closes, as that is seen as the channel going away.
			return make(chan amqp091.Delivery), nil
		},
		NotifyClose: func(ch chan *amqp091.Error) chan *amqp091.Error {
			return ch
		},
	}
}

type mockAMQPChannel struct {
	h mockAMQPChannelHandlers
}

func (m *mockAMQPChannel) Close() error {
	return m.h.Close()
}
func (m *mockAMQPChannel) IsClosed() bool {
	return m.h.IsClosed()
}
func (m *mockAMQPChannel) Qos(_, _ int, _ bool) error {
	return m.h.Qos()
}
func (m *mockAMQPChannel) QueueDeclare(_ string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	return m.h.QueueDeclare()
}
func (m *mockAMQPChannel) Publish(_, routingKey string, _, _ bool, msg amqp091.Publishing) error {
	return m.h.Publish(routingKey, msg)
}
func (m *mockAMQPChannel) Consume(_, _ string, _, _, _, _ bool, _ amqp091.Table) (<-chan amqp091.Delivery, error) {
	return m.h.Consume()
}
func (m *mockAMQPChannel) Cancel(_ string, _ bool) error {
	return m.h.Cancel()
}
func (m *mockAMQPChannel) NotifyClose(rcv chan *amqp091.Error) chan *amqp091.Error {
	return m.h.NotifyClose(rcv)
}

type mockAMQPAcknowledgerHandlers struct {
	Ack    errorFunc
	Nack   func(requeue bool) error
	Reject func(requeue bool) error
}

// newDefaultAMQPAcknowledgerHandlers generates a default set of handlers.
func newDefaultAMQPAcknowledgerHandlers() mockAMQPAcknowledgerHandlers {
	return mockAMQPAcknowledgerHandlers{
		Ack:    func() error { return nil },
		Nack:   func(bool) error { return nil },
		Reject: func(bool) error { return nil },
	}
}

type mockAMQPAcknowledger struct {
	h mockAMQPAcknowledgerHandlers
}

func (m *mockAMQPAcknowledger) Ack(_ uint64, _ bool) error {
	return m.h.Ack()
}
func (m *mockAMQPAcknowledger) Nack(_ uint64, _, requeue bool) error {
	return m.h.Nack(requeue)
}
func (m *mockAMQPAcknowledger) Reject(_ uint64, requeue bool) error {
	return m.h.Reject(requeue)
}

type mockAMQPConnectionHandlers struct {
	Close    errorFunc
	IsClosed func() bool
	Channel  func() (amqp091Channel, error)
}

// newDefaultAMQPConnectionHandlers generates a default set of handlers.
func newDefaultAMQPConnectionHandlers() mockAMQPConnectionHandlers {
	return mockAMQPConnectionHandlers{
		Close:    func() error { return nil },
		IsClosed: func() bool { return false },
		Channel: func() (amqp091Channel, error) {
			return &mockAMQPChannel{h: newDefaultAMQPChannelHandlers()}, nil
		},
	}
}

type mockAMQPConnection struct {
	h mockAMQPConnectionHandlers
}

func (m *mockAMQPConnection) Close() error {
	return m.h.Close()
}
func (m *mockAMQPConnection) IsClosed() bool {
	return m.h.IsClosed()
}
func (m *mockAMQPConnection) Channel() (amqp091Channel, error) {
	return m.h.Channel()
}

// setupDial replaces the dialer for the duration of a test, dialling also
// retries immediately so tests which exercise the backoff don't wait.
func setupDial(t *testing.T, dialer func(addr string) (amqp091Connection, error)) {
	originalDial, originalBackoff := dial, newBackoff
	dial = dialer
	newBackoff = func(ctx context.Context) backoff.BackOff {
		return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2), ctx)
	}

	t.Cleanup(func() {
		dial, newBackoff = originalDial, originalBackoff
	})
}

// newTestEngine an engine which does not log.
func newTestEngine() *Engine {
	return &Engine{Logger: zap.NewNop()}
}

// connectionWithChannel generates an attached connection on top of the supplied channel handlers.
func connectionWithChannel(state mq.State, h mockAMQPChannelHandlers) *connection {
	return &connection{
		engine:     newTestEngine(),
		uri:        "amqp://localhost/test",
		addr:       "amqp://localhost",
		queue:      "test",
		Connection: &mockAMQPConnection{h: newDefaultAMQPConnectionHandlers()},
		Channel:    &mockAMQPChannel{h: h},
		state:      state,
	}
}
