package mq

import (
	"context"
)

type mockBackendHandlers struct {
	ConnectRecv func(ctx context.Context) error
	ConnectSend func(ctx context.Context) error
	Disconnect  func() error
	Next        func(ctx context.Context) (MessageBackend, error)
	Deliver     func(ctx context.Context) error
	Create      func() (MessageBackend, error)
	Release     func() error
}

// newDefaultBackendHandlers generates a default set of handlers.
func newDefaultBackendHandlers() mockBackendHandlers {
	return mockBackendHandlers{
		ConnectRecv: func(context.Context) error { return nil },
		ConnectSend: func(context.Context) error { return nil },
		Disconnect:  func() error { return nil },
		Next: func(context.Context) (MessageBackend, error) {
			return &mockMessage{h: newDefaultMessageHandlers(), body: []byte("12345")}, nil
		},
		Deliver: func(context.Context) error { return nil },
		Create: func() (MessageBackend, error) {
			return &mockMessage{h: newDefaultMessageHandlers()}, nil
		},
		Release: func() error { return nil },
	}
}

type mockBackend struct {
	h mockBackendHandlers
}

func (m *mockBackend) ConnectRecv(ctx context.Context) error {
	return m.h.ConnectRecv(ctx)
}
func (m *mockBackend) ConnectSend(ctx context.Context) error {
	return m.h.ConnectSend(ctx)
}
func (m *mockBackend) Disconnect() error {
	return m.h.Disconnect()
}
func (m *mockBackend) Next(ctx context.Context) (MessageBackend, error) {
	return m.h.Next(ctx)
}
func (m *mockBackend) Deliver(ctx context.Context) error {
	return m.h.Deliver(ctx)
}
func (m *mockBackend) Create() (MessageBackend, error) {
	return m.h.Create()
}
func (m *mockBackend) Release() error {
	return m.h.Release()
}

type mockMessageHandlers struct {
	Accept  func() error
	Reject  func() error
	Pass    func() error
	Send    func(ctx context.Context, partition string) error
	Release func() error
}

// newDefaultMessageHandlers generates a default set of handlers.
func newDefaultMessageHandlers() mockMessageHandlers {
	return mockMessageHandlers{
		Accept:  func() error { return nil },
		Reject:  func() error { return nil },
		Pass:    func() error { return nil },
		Send:    func(context.Context, string) error { return nil },
		Release: func() error { return nil },
	}
}

// mockMessage keeps its properties in memory, dispositions go through the handlers.
type mockMessage struct {
	h mockMessageHandlers

	typ, subject, address string
	body                  []byte
}

func (m *mockMessage) Accept() error {
	return m.h.Accept()
}
func (m *mockMessage) Reject() error {
	return m.h.Reject()
}
func (m *mockMessage) Pass() error {
	return m.h.Pass()
}
func (m *mockMessage) Send(ctx context.Context, partition string) error {
	return m.h.Send(ctx, partition)
}
func (m *mockMessage) Release() error {
	return m.h.Release()
}
func (m *mockMessage) SetType(typ string) error {
	m.typ = typ
	return nil
}
func (m *mockMessage) Type() string {
	return m.typ
}
func (m *mockMessage) SetSubject(subject string) error {
	m.subject = subject
	return nil
}
func (m *mockMessage) Subject() string {
	return m.subject
}
func (m *mockMessage) SetAddress(address string) error {
	m.address = address
	return nil
}
func (m *mockMessage) Address() string {
	return m.address
}
func (m *mockMessage) Body() []byte {
	return m.body
}
func (m *mockMessage) AddBytes(b []byte) error {
	m.body = append(m.body, b...)
	return nil
}

// mockConstructor constructs backends from the handlers it was created with.
type mockConstructor struct {
	h   mockBackendHandlers
	err error

	uris []string // every URI constructed.
}

func newMockConstructor() *mockConstructor {
	return &mockConstructor{h: newDefaultBackendHandlers()}
}

func (m *mockConstructor) Construct(uri string) (Backend, error) {
	m.uris = append(m.uris, uri)
	if m.err != nil {
		return nil, m.err
	}
	return &mockBackend{h: m.h}, nil
}

// testOwner an Owner compared by value.
type testOwner string

func (o testOwner) Name() string { return string(o) }

// mockCluster reports a fixed partition.
type mockCluster struct {
	partition string
	err       error
	calls     int
}

func (m *mockCluster) DefaultPartition(string) (string, error) {
	m.calls++
	return m.partition, m.err
}

// newTestConnection opens test:sample against a registry holding only c.
func newTestConnection(c *mockConstructor, opts ...Option) (*Connection, error) {
	r := NewRegistry()
	r.Register("test", c, Builtin)
	return r.Open("test:sample", opts...)
}
