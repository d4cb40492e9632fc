package provider

import (
	"context"
	"sync/atomic"
	"time"
)

// Loader produces a fresh registry from some source.
type Loader interface {
	Load(ctx context.Context) (*Registry, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (*Registry, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (*Registry, error) {
	return f(ctx)
}

// FileSource loads a registry from a local file.
type FileSource struct {
	Path string
}

// Load reads the registry file.
func (s FileSource) Load(context.Context) (*Registry, error) {
	return LoadFile(s.Path)
}

// snapshot pairs a registry with the time it was installed.
type snapshot struct {
	registry   *Registry
	loadedAt   time.Time
	generation uint64
}

// Store holds the current registry for the process. It is populated once at
// start-up, read by every request and replaced only by a fresh load.
// A Store is safe for concurrent use.
type Store struct {
	current  atomic.Pointer[snapshot]
	onReload func(r *Registry, err error)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithReloadHook calls fn after every Reload and every file-watch reload,
// with the new registry or the load error.
func WithReloadHook(fn func(r *Registry, err error)) StoreOption {
	return func(s *Store) {
		s.onReload = fn
	}
}

// NewStore creates a store holding r.
func NewStore(r *Registry, opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&snapshot{registry: r, loadedAt: time.Now(), generation: 1})
	return s
}

// Registry returns the current registry.
func (s *Store) Registry() *Registry {
	return s.current.Load().registry
}

// LoadedAt returns when the current registry was installed.
func (s *Store) LoadedAt() time.Time {
	return s.current.Load().loadedAt
}

// Generation counts registry installs, starting at 1.
func (s *Store) Generation() uint64 {
	return s.current.Load().generation
}

// Replace installs r as the current registry. A nil registry is ignored.
func (s *Store) Replace(r *Registry) {
	if r == nil {
		return
	}
	for {
		old := s.current.Load()
		next := &snapshot{registry: r, loadedAt: time.Now(), generation: old.generation + 1}
		if s.current.CompareAndSwap(old, next) {
			return
		}
	}
}

// Reload fetches a fresh registry from l and installs it. On error the
// current registry is kept.
func (s *Store) Reload(ctx context.Context, l Loader) error {
	r, err := l.Load(ctx)
	s.reloaded(r, err)
	if err != nil {
		return err
	}
	s.Replace(r)
	return nil
}

func (s *Store) reloaded(r *Registry, err error) {
	if s.onReload != nil {
		s.onReload(r, err)
	}
}
