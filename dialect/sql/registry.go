package sql

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/syssam/chrono/dialect"
)

// ConnectionConfig describes one named connection manager.
type ConnectionConfig struct {
	Name         string
	Dialect      string
	DSN          string
	MaxOpenConns int
}

// Registry maps connection-manager names to drivers. It is passed
// explicitly to whatever needs a connection; there is no process-wide
// instance.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]dialect.Driver
	stats  map[string]*Stats
	open   func(name, source string) (*Driver, error)
	logger *slog.Logger
	debug  bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger of the statistics and debug drivers.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithDebug logs every statement of connections opened afterwards.
func WithDebug(on bool) RegistryOption {
	return func(r *Registry) { r.debug = on }
}

// WithOpener replaces the function used to open connections.
func WithOpener(open func(name, source string) (*Driver, error)) RegistryOption {
	return func(r *Registry) { r.open = open }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:  make(map[string]dialect.Driver),
		stats:  make(map[string]*Stats),
		open:   Open,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds drv under name.
func (r *Registry) Register(name string, drv dialect.Driver) error {
	if name == "" {
		return errors.New("dialect/sql: connection name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[name]; ok {
		return fmt.Errorf("dialect/sql: connection %q already registered", name)
	}
	r.conns[name] = drv
	return nil
}

// Open opens the connection described by cfg and registers it. With
// debug enabled every statement is logged; otherwise statistics are
// collected and slow statements logged.
func (r *Registry) Open(cfg ConnectionConfig) (dialect.Driver, error) {
	drv, err := r.open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %q: %w", cfg.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		drv.DB().SetMaxOpenConns(cfg.MaxOpenConns)
	}
	var wrapped dialect.Driver
	if r.debug {
		wrapped = NewDebugDriver(drv, r.logger)
	} else {
		sd := NewStatsDriver(drv, WithStatsLogger(r.logger))
		r.mu.Lock()
		r.stats[cfg.Name] = sd.Stats()
		r.mu.Unlock()
		wrapped = sd
	}
	if err := r.Register(cfg.Name, wrapped); err != nil {
		return nil, errors.Join(err, drv.Close())
	}
	return wrapped, nil
}

// Get returns the driver registered under name.
func (r *Registry) Get(name string) (dialect.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	drv, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unknown connection %q", name)
	}
	return drv, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for n := range r.conns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stats returns the statistics of a connection opened by the registry
// without debug logging.
func (r *Registry) Stats(name string) (StatsSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stats[name]
	if !ok {
		return StatsSnapshot{}, false
	}
	return s.Snapshot(), true
}

// Close closes every registered driver and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, n := range sortedKeys(r.conns) {
		if err := r.conns[n].Close(); err != nil {
			errs = append(errs, fmt.Errorf("dialect/sql: close %q: %w", n, err))
		}
	}
	r.conns = make(map[string]dialect.Driver)
	r.stats = make(map[string]*Stats)
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
