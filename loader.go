package mq

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// EntrySymbol the symbol every plugin must export.
// it is either a function or a variable of type EntryFunc.
const EntrySymbol = "MQEntry"

// EngineAPIVersion the version of the registration contract handed to plugins through Module.
const EngineAPIVersion = 1

// EntryFunc the signature of a plugin entry point. It is invoked once, when the plugin is
// loaded, and is expected to call m.Register for each scheme the plugin provides.
// Returning an error causes the plugin to be skipped, none of the bindings it made are kept.
type EntryFunc = func(m *Module) error

// pluginSuffixes file extensions recognised as loadable modules.
var pluginSuffixes = []string{".so", ".dylib", ".bundle", ".dll"}

// symbolLookup the part of *plugin.Plugin the loader uses.
type symbolLookup interface {
	Lookup(name string) (plugin.Symbol, error)
}

// openPlugin opens the module at path, a variable so tests can avoid real shared objects.
var openPlugin = func(path string) (symbolLookup, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Module represents a loaded plugin, it is the Owner of every binding the plugin registers.
//
// Bindings made while the entry point runs are held on the module and only reach the
// registry once it returns successfully, so a failing plugin never touches bindings
// owned by anyone else.
type Module struct {
	path     string
	registry *Registry

	mu        sync.Mutex
	committed bool
	staged    []binding
	displaced []binding // bindings of other owners this module replaced, restored by Unload.
}

// newModule creates a module for path which registers against r.
func newModule(path string, r *Registry) *Module {
	return &Module{path: path, registry: r}
}

// Name implements Owner.
func (m *Module) Name() string { return filepath.Base(m.path) }

// Path returns the file the module was loaded from.
func (m *Module) Path() string { return m.path }

// APIVersion the registration contract version the module was loaded with.
func (m *Module) APIVersion() int { return EngineAPIVersion }

// Register binds scheme to c, owned by this module.
func (m *Module) Register(scheme string, c Constructor) {
	if c == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.committed {
		for i := range m.staged {
			if m.staged[i].scheme == scheme {
				m.staged[i].constructor = c
				return
			}
		}
		m.staged = append(m.staged, binding{scheme: scheme, constructor: c, owner: m})
		return
	}

	m.bind(scheme, c)
}

// Unregister removes a binding this module made for scheme.
func (m *Module) Unregister(scheme string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.committed {
		for i := range m.staged {
			if m.staged[i].scheme == scheme {
				m.staged = append(m.staged[:i], m.staged[i+1:]...)
				return true
			}
		}
		return false
	}

	return m.registry.Unregister(scheme, m)
}

// Unload removes every binding the module made and puts back the bindings it replaced,
// unless their scheme has been bound again since. It returns how many bindings were removed.
func (m *Module) Unload() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.registry.UnregisterOwner(m)
	for _, b := range m.displaced {
		m.registry.restore(b)
	}

	m.displaced = nil
	return n
}

// commit moves the staged bindings into the registry, later registrations go straight through.
func (m *Module) commit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.staged {
		m.bind(b.scheme, b.constructor)
	}

	m.staged, m.committed = nil, true
}

// bind registers scheme, remembering what it displaced. m.mu must be held.
func (m *Module) bind(scheme string, c Constructor) {
	prev, ok := m.registry.swap(scheme, c, m)
	if ok && !sameOwner(prev.owner, m) {
		m.displaced = append(m.displaced, prev)
	}
}

// Loader discovers plugins in a directory and lets each register its engines.
//
// Loading is best effort: a module which cannot be opened, has no entry point or whose
// entry point fails is logged and skipped, and the scan carries on.
type Loader struct {
	// Dir the directory to scan, a missing directory is not an error.
	Dir string
	// Logger receives diagnostics, defaults to the package logger.
	Logger *zap.Logger

	mu      sync.Mutex
	modules []*Module
}

// NewLoader creates a loader from cfg.
func NewLoader(cfg Config) *Loader {
	return &Loader{Dir: cfg.PluginDir, Logger: NewLogger(cfg.Verbose)}
}

// Load scans the directory and initialises every plugin found against r.
// It returns how many plugins were initialised. The error holds every module which was
// skipped, it does not mean the scan stopped early, except when the directory itself
// could not be read.
func (l *Loader) Load(r *Registry) (int, error) {
	log := l.logger().With(zap.String("dir", l.Dir))
	log.Debug("loading plug-ins")

	entries, err := os.ReadDir(l.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("plug-in directory does not exist")
		return 0, nil
	}
	if err != nil {
		log.Warn("cannot open plug-in directory", zap.Error(err))
		return 0, &EnvironmentError{Op: "read plugin dir", Err: err}
	}

	var (
		loaded int
		errs   error
	)

	for _, e := range entries {
		if e.IsDir() || !isPluginFile(e.Name()) {
			continue
		}

		path := filepath.Join(l.Dir, e.Name())
		log.Debug("loading plug-in", zap.String("plugin", e.Name()))

		m, lErr := l.loadModule(r, path)
		if lErr != nil {
			log.Warn("skipping plug-in", zap.String("plugin", path), zap.Error(lErr))
			errs = multierr.Append(errs, lErr)
			continue
		}

		l.mu.Lock()
		l.modules = append(l.modules, m)
		l.mu.Unlock()

		loaded++
		log.Debug("plug-in initialised", zap.String("plugin", path))
	}

	return loaded, errs
}

// Modules returns the modules which were successfully initialised.
func (l *Loader) Modules() []*Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Module(nil), l.modules...)
}

// Unload unloads every module in the reverse order they were loaded, so bindings one plugin
// replaced from another are put back in turn. It returns how many bindings were removed.
func (l *Loader) Unload() int {
	l.mu.Lock()
	modules := l.modules
	l.modules = nil
	l.mu.Unlock()

	var n int
	for i := len(modules) - 1; i >= 0; i-- {
		n += modules[i].Unload()
	}

	return n
}

// loadModule opens a single plugin and runs its entry point.
func (l *Loader) loadModule(r *Registry, path string) (*Module, error) {
	p, err := openPlugin(path)
	if err != nil {
		return nil, &EnvironmentError{Op: "load " + path, Err: err}
	}

	sym, err := p.Lookup(EntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("%s has no initialisation function: %w", path, err)
	}

	entry, ok := entryFunc(sym)
	if !ok {
		return nil, fmt.Errorf("%s: %s has unexpected type %T", path, EntrySymbol, sym)
	}

	m := newModule(path, r)
	if err = runEntry(entry, m); err != nil {
		return nil, fmt.Errorf("%s: initialisation failed: %w", path, err)
	}

	m.commit()
	return m, nil
}

// logger returns the configured logger or the package logger.
func (l *Loader) logger() *zap.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return Logger()
}

// entryFunc converts a looked up symbol to an entry point, functions are returned
// as is while exported variables are returned as pointers.
func entryFunc(sym plugin.Symbol) (EntryFunc, bool) {
	switch fn := sym.(type) {
	case func(*Module) error:
		return fn, fn != nil
	case *func(*Module) error:
		if fn == nil || *fn == nil {
			return nil, false
		}
		return *fn, true
	default:
		return nil, false
	}
}

// runEntry invokes entry, converting a panic into an error.
func runEntry(entry EntryFunc, m *Module) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return entry(m)
}

// isPluginFile whether name looks like a loadable module, hidden files are ignored.
func isPluginFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}

	ext := filepath.Ext(name)
	for _, s := range pluginSuffixes {
		if strings.EqualFold(ext, s) {
			return true
		}
	}

	return false
}
