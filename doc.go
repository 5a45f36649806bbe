// Package mq defines a message queue client which is independent of the transport used to reach the queue.
// A connection is opened from a URI, the scheme of the URI (the part before the first colon) selects the engine
// which services it, and from then on every operation on the connection or its messages is forwarded to that engine.
//
// Engines are registered against a Registry, either statically (engine packages call RegisterBuiltin from an init
// function, so importing the package is enough) or at run time by the plugin loader, which scans a directory of
// Go plugins and invokes the MQEntry symbol exported by each one.
//
// This package knows nothing about any wire protocol. The engines currently provided are:
//
//   - rabbitmq (github.com/jacklaaa89/mq/rabbitmq) for amqp: and amqps: URIs
//   - memory (github.com/jacklaaa89/mq/memory) for in-process mem: queues
//   - random (github.com/jacklaaa89/mq/random) a receive-only engine producing random numbers
//
// Connections and messages are owned by a single goroutine; only the Registry is safe for concurrent use.
package mq
