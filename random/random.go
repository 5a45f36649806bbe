// Package random provides a receive-only mq engine which produces random numbers.
//
// Every message received from a random: URI has a body holding a random non-negative
// decimal integer. The engine cannot send, so connecting for sending and creating
// messages both fail with mq.ErrUnsupported. Importing the package registers the
// engine for the "random" scheme.
package random

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/jacklaaa89/mq"
)

// Scheme the scheme the engine is registered under.
const Scheme = "random"

func init() {
	mq.RegisterBuiltin(Scheme, &Engine{})
}

// Engine constructs random connections.
type Engine struct {
	// Source overrides the random source, used by tests. Defaults to a time seeded source.
	Source rand.Source
}

// Construct implements mq.Constructor.
func (e *Engine) Construct(string) (mq.Backend, error) {
	return &connection{src: e.Source}, nil
}

// connection the backend of a random connection, sending is left unsupported.
type connection struct {
	mq.UnsupportedBackend

	src   rand.Source
	rnd   *rand.Rand
	state mq.State
}

func (c *connection) ConnectRecv(context.Context) error {
	if c.state != mq.Disconnected {
		return mq.ErrInvalidState
	}

	src := c.src
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}

	c.rnd = rand.New(src) //nolint:gosec // not used for anything sensitive.
	c.state = mq.Recv
	return nil
}

func (c *connection) Disconnect() error {
	c.state = mq.Disconnected
	return nil
}

func (c *connection) Release() error { return c.Disconnect() }

func (c *connection) Next(context.Context) (mq.MessageBackend, error) {
	if c.state != mq.Recv {
		return nil, mq.ErrInvalidState
	}

	return &message{body: []byte(strconv.FormatInt(c.rnd.Int63(), 10))}, nil
}

// message an incoming random message, every mutator is unsupported.
type message struct {
	mq.UnsupportedMessage
	body []byte
}

func (m *message) Accept() error { return nil }
func (m *message) Reject() error { return nil }
func (m *message) Pass() error { return nil }
func (m *message) Address() string { return Scheme + ":" }
func (m *message) Body() []byte { return m.body }
