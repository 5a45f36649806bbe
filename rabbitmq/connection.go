package rabbitmq

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jacklaaa89/mq"
)

// outgoing a sent message waiting for the connection to be delivered.
type outgoing struct {
	routingKey string
	msg        amqp091.Publishing
}

// connection represents the engine side of an mq.Connection.
// it holds a single amqp091 connection and channel, which are re-established
// if the broker drops them while the connection is attached.
type connection struct {
	engine *Engine
	uri    string // the URI the connection was opened with.
	addr   string // the broker address to dial.
	queue  string // the queue named by the URI.
	state  mq.State

	Connection amqp091Connection // the connection.
	Channel    amqp091Channel    // the currently active channel.

	closes     chan *amqp091.Error     // receives channel closes.
	consumer   string                  // the consumer tag while receiving.
	deliveries <-chan amqp091.Delivery // deliveries while receiving.
	pending    []outgoing              // sent messages awaiting Deliver.
}

// ConnectRecv connects and starts consuming from the queue.
func (c *connection) ConnectRecv(ctx context.Context) error {
	if c.state != mq.Disconnected {
		return mq.ErrInvalidState
	}

	if err := c.open(ctx, mq.Recv); err != nil {
		return err
	}

	c.state = mq.Recv
	return nil
}

// ConnectSend connects ready for publishing.
func (c *connection) ConnectSend(ctx context.Context) error {
	if c.state != mq.Disconnected {
		return mq.ErrInvalidState
	}

	if err := c.open(ctx, mq.Send); err != nil {
		return err
	}

	c.state = mq.Send
	return nil
}

// open dials the broker, retrying with backoff, opens a channel and, when receiving, starts consuming.
func (c *connection) open(ctx context.Context, state mq.State) error {
	err := backoff.Retry(func() error {
		conn, err := c.engine.dial(c.addr)
		if err != nil {
			return retryable(err)
		}

		c.Connection = conn
		return nil
	}, newBackoff(ctx))

	if err != nil {
		return toError("dial", err)
	}

	if err = c.openChannel(state); err != nil {
		logError(c.engine.logger(), c.close())
		return err
	}

	return nil
}

// openChannel opens a channel on the current connection.
func (c *connection) openChannel(state mq.State) error {
	ch, err := c.Connection.Channel()
	if err != nil {
		return toError("channel", err)
	}

	c.Channel = ch
	c.closes = ch.NotifyClose(make(chan *amqp091.Error, 1))

	if c.engine.Declare {
		if _, err = ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
			return toError("declare", err)
		}
	}

	if state != mq.Recv {
		return nil
	}

	if err = ch.Qos(c.engine.prefetch(), 0, false); err != nil {
		return toError("qos", err)
	}

	if c.consumer == "" {
		c.consumer = "mq-" + uuid.NewString()
	}

	c.deliveries, err = ch.Consume(c.queue, c.consumer, false, false, false, false, nil)
	return toError("consume", err)
}

// reconnect re-establishes a dropped connection or channel, it gives up
// when the broker closed the channel with an unrecoverable error.
func (c *connection) reconnect(ctx context.Context) error {
	if err := c.fatal(c.closeReason()); err != nil {
		return toError("reconnect", err)
	}

	if !isClosed(c.Connection) {
		if !isClosed(c.Channel) {
			logError(c.engine.logger(), c.Channel.Close())
		}
		return c.openChannel(c.state)
	}

	logError(c.engine.logger(), c.close())
	return c.open(ctx, c.state)
}

// closeReason returns why the channel was closed, if it was closed by the broker.
func (c *connection) closeReason() *amqp091.Error {
	select {
	case e, ok := <-c.closes:
		if ok {
			return e
		}
	default:
	}
	return nil
}

// fatal returns cErr when it closed the channel for good. a hard error which took
// the whole connection down is not, as redialling starts afresh.
func (c *connection) fatal(cErr *amqp091.Error) error {
	if cErr == nil || cErr.Recover || isClosed(c.Connection) {
		return nil
	}
	return cErr
}

// onChannel performs fn on the channel, reconnecting first if it was closed.
func (c *connection) onChannel(ctx context.Context, fn func(ch amqp091Channel) error) error {
	if isClosed(c.Channel) {
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}

	return fn(c.Channel)
}

// Disconnect stops consuming and closes the channel and connection.
func (c *connection) Disconnect() error {
	var err error
	if c.consumer != "" && !isClosed(c.Channel) {
		err = toError("cancel", c.Channel.Cancel(c.consumer, false))
	}

	err = multierr.Append(err, c.close())
	c.state = mq.Disconnected
	c.consumer = ""
	c.pending = nil
	return err
}

// close closes the channel and connection, ignoring those already closed.
func (c *connection) close() error {
	var err error
	if !isClosed(c.Channel) {
		err = toError("close channel", c.Channel.Close())
	}
	if !isClosed(c.Connection) {
		err = multierr.Append(err, toError("close connection", c.Connection.Close()))
	}

	c.Channel, c.Connection, c.deliveries = nil, nil, nil
	return err
}

// Next waits for the next delivery from the queue.
// if the broker drops the channel the connection is re-established and consuming resumes.
func (c *connection) Next(ctx context.Context) (mq.MessageBackend, error) {
	if c.state != mq.Recv {
		return nil, mq.ErrInvalidState
	}

	for {
		if c.deliveries == nil {
			if err := c.reconnect(ctx); err != nil {
				return nil, err
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case d, ok := <-c.deliveries:
			if ok {
				return &message{conn: c, kind: mq.Incoming, Delivery: d}, nil
			}
			// the delivery channel closes when the channel does.
			c.deliveries = nil
			if err := c.fatal(c.closeReason()); err != nil {
				return nil, toError("next", err)
			}
			c.engine.logger().Debug("rabbitmq: reconnecting", zap.String("queue", c.queue))
		}
	}
}

// Deliver publishes every pending message, those which could not be published remain pending.
func (c *connection) Deliver(ctx context.Context) error {
	if c.state != mq.Send {
		return mq.ErrInvalidState
	}

	for len(c.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		p := c.pending[0]
		err := c.onChannel(ctx, func(ch amqp091Channel) error {
			return ch.Publish(c.engine.Exchange, p.routingKey, true, false, p.msg)
		})
		if err != nil {
			return toError("publish", err)
		}

		c.pending = c.pending[1:]
	}

	c.pending = nil
	return nil
}

// Create creates a new outgoing message.
func (c *connection) Create() (mq.MessageBackend, error) {
	return &message{conn: c, kind: mq.Outgoing}, nil
}

// Release disconnects from the broker.
func (c *connection) Release() error {
	return c.Disconnect()
}
