package memory

import (
	"context"
	"strings"
	"sync"
)

// envelope a message held on a queue.
type envelope struct {
	body      []byte
	typ       string
	subject   string
	address   string
	partition string
}

// queue an unbounded fifo of envelopes.
type queue struct {
	mu     sync.Mutex
	items  []*envelope
	notify chan struct{} // closed, then replaced, whenever an item is pushed.
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{})}
}

// push appends e, or prepends it when front is set.
func (q *queue) push(e *envelope, front bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if front {
		q.items = append([]*envelope{e}, q.items...)
	} else {
		q.items = append(q.items, e)
	}

	close(q.notify)
	q.notify = make(chan struct{})
}

// pop removes the first envelope, blocking until there is one or ctx is done.
func (q *queue) pop(ctx context.Context) (*envelope, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return e, nil
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// len the number of queued envelopes.
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Broker holds a set of named in-process queues, it is safe for concurrent use.
// Queues are created the first time they are referenced.
type Broker struct {
	mu     sync.Mutex
	queues map[string]*queue
}

// NewBroker creates a new, empty broker.
func NewBroker() *Broker {
	return &Broker{queues: make(map[string]*queue)}
}

// queue returns the named queue, creating it if needed.
func (b *Broker) queue(name string) *queue {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	if !ok {
		q = newQueue()
		b.queues[name] = q
	}
	return q
}

// Len returns the number of messages waiting on the named queue.
func (b *Broker) Len(name string) int {
	return b.queue(name).len()
}

// queueName derives a queue name from a URI or a bare address,
// "mem:orders", "mem://orders" and "orders" all name the same queue.
func queueName(address string) string {
	if _, rest, ok := strings.Cut(address, ":"); ok {
		address = rest
	}

	return strings.TrimPrefix(address, "//")
}
