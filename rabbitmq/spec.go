package rabbitmq

import (
	"io"

	"github.com/rabbitmq/amqp091-go"
)

// the file contains interfaces for the base amqp091 library, this is so we can easily override in tests, and it also
// limits the functionality to what we need.

var (
	dialConfig = func(addr string, c Config) (amqp091Connection, error) { // dialConfig connects to amqp091 with config
		return wrapConnection(amqp091.DialConfig(addr, c))
	}
	dial = func(addr string) (amqp091Connection, error) { // dial connects to amqp091 with the default config
		return wrapConnection(amqp091.Dial(addr))
	}
)

// see: github.com/rabbitmq/amqp091-go/channel.go
type amqp091Channel interface {
	io.Closer
	IsClosed() bool
	Qos(count, size int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	Publish(exchange, routingKey string, mandatory, immediate bool, msg amqp091.Publishing) error
	Cancel(consumerName string, noWait bool) error
	NotifyClose(rcv chan *amqp091.Error) chan *amqp091.Error
	Consume(
		queue, consumerName string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp091.Table,
	) (<-chan amqp091.Delivery, error)
}

// see: github.com/rabbitmq/amqp091-go/connection.go
type amqp091Connection interface {
	io.Closer
	IsClosed() bool
	Channel() (amqp091Channel, error)
}

// sdkConnection adapts *amqp091.Connection so Channel returns the interface above.
type sdkConnection struct {
	*amqp091.Connection
}

// Channel opens a new channel on the connection.
func (c *sdkConnection) Channel() (amqp091Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// wrapConnection wraps the result of an amqp091 dial.
func wrapConnection(conn *amqp091.Connection, err error) (amqp091Connection, error) {
	if err != nil {
		return nil, err
	}
	return &sdkConnection{conn}, nil
}
