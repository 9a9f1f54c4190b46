// Package logctx carries request-scoped logging fields on the context and
// attaches them, together with the active trace and span ids, to every slog
// record.
package logctx

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Well-known keys.
const (
	KeyClientIP = "clientIp"
	KeyUserID   = "userId"
	KeyTraceID  = "traceId"
	KeySpanID   = "spanId"
)

type ctxKey struct{}

// Store is the mutable key/value set for one unit of work. It is safe for
// concurrent use; a nil *Store ignores writes and reads as empty.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// WithStore attaches s to ctx.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached to ctx, or nil.
func FromContext(ctx context.Context) *Store {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*Store)
	return s
}

// NewContext returns ctx's store if it has one, otherwise attaches a new one.
func NewContext(ctx context.Context) (context.Context, *Store) {
	if s := FromContext(ctx); s != nil {
		return ctx, s
	}
	s := NewStore()
	return WithStore(ctx, s), s
}

// Put sets key to value. Empty values are ignored.
func (s *Store) Put(key, value string) {
	if s == nil || value == "" {
		return
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Remove deletes keys.
func (s *Store) Remove(keys ...string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.mu.Unlock()
}

// Keys returns the set keys in sorted order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Len returns the number of set keys.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
