package mq

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// builtin an engine linked into the binary, queued until the default registry is initialised.
type builtin struct {
	scheme      string
	constructor Constructor
}

var (
	initOnce   sync.Once
	defaultReg *Registry
	defaultLdr *Loader

	builtinMu sync.Mutex
	builtins  []builtin
	ready     bool // whether the default registry has been initialised.
)

// RegisterBuiltin queues an engine which is linked into the binary, it is typically
// called from the init function of an engine package. Builtin engines are registered
// with the Builtin owner, in call order, before any plugin is loaded.
func RegisterBuiltin(scheme string, c Constructor) {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	builtins = append(builtins, builtin{scheme, c})
	if ready {
		defaultReg.Register(scheme, c, Builtin)
	}
}

// RegisterBuiltins registers every builtin engine queued so far with r, owned by Builtin.
// It is used to populate registries other than the default one.
func RegisterBuiltins(r *Registry) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	registerBuiltins(r)
}

// registerBuiltins registers the queued builtins, builtinMu must be held.
func registerBuiltins(r *Registry) {
	for _, b := range builtins {
		r.Register(b.scheme, b.constructor, Builtin)
	}
}

// Default returns the process wide registry. The first call registers the builtin engines
// and then loads plugins from the configured directory, exactly once no matter how many
// goroutines get here at the same time. Plugin failures are logged, never returned.
func Default() *Registry {
	initOnce.Do(func() {
		cfg := LoadConfig()
		// a logger installed with SetLogger before the first call is kept.
		logger.CompareAndSwap(nil, NewLogger(cfg.Verbose))

		r := NewRegistry()

		builtinMu.Lock()
		registerBuiltins(r)
		defaultReg, ready = r, true
		builtinMu.Unlock()

		defaultLdr = loadPlugins(r, cfg.PluginDir, Logger())
	})

	return defaultReg
}

// loadPlugins loads the plugins found in dir into r, reporting to log.
func loadPlugins(r *Registry, dir string, log *zap.Logger) *Loader {
	l := &Loader{Dir: dir, Logger: log}
	n, err := l.Load(r)
	if err != nil {
		log.Warn("plug-ins failed to load", zap.Error(err))
	}

	log.Debug("plug-ins loaded", zap.Int("count", n), zap.Strings("schemes", r.Schemes()))
	return l
}

// ConnectRecv opens a connection to uri for receiving messages using the default registry.
func ConnectRecv(ctx context.Context, uri string, opts ...Option) (*Connection, error) {
	return Default().ConnectRecv(ctx, uri, opts...)
}

// ConnectSend opens a connection to uri for sending messages using the default registry.
func ConnectSend(ctx context.Context, uri string, opts ...Option) (*Connection, error) {
	return Default().ConnectSend(ctx, uri, opts...)
}

// Register binds scheme to c in the default registry.
func Register(scheme string, c Constructor, owner Owner) {
	Default().Register(scheme, c, owner)
}

// Unregister removes the binding for scheme from the default registry if owner made it.
func Unregister(scheme string, owner Owner) bool {
	return Default().Unregister(scheme, owner)
}

// UnregisterConstructor removes every binding to c from the default registry.
func UnregisterConstructor(c Constructor) int {
	return Default().UnregisterConstructor(c)
}

// UnregisterOwner removes every binding made by owner from the default registry.
func UnregisterOwner(owner Owner) int {
	return Default().UnregisterOwner(owner)
}
