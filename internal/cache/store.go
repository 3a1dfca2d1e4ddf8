// Package cache keeps short-lived copies of slow-changing backend data, such
// as the category list, so that a refresh does not refetch it every time.
package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Store is a size-bounded LRU with a per-entry time to live.
type Store[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*list.Element
	order    *list.List
	group    singleflight.Group
	gen      uint64 // bumped by Delete and Purge

	hits, misses uint64
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// Stats counts lookups since the store was created.
type Stats struct {
	Hits, Misses uint64
	Size         int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns a store holding at most capacity entries for ttl each.
// A capacity below 1 is treated as 1.
func New[V any](capacity int, ttl time.Duration, opts ...Option) *Store[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Store[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	el, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !s.now().Before(e.expires) {
		s.remove(el)
		s.misses++
		return zero, false
	}
	s.order.MoveToFront(el)
	s.hits++
	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(key, value)
}

// setIfCurrent stores value only if no Delete or Purge ran since gen was read.
func (s *Store[V]) setIfCurrent(key string, value V, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.set(key, value)
	}
}

func (s *Store[V]) set(key string, value V) {
	e := &entry[V]{key: key, value: value, expires: s.now().Add(s.ttl)}
	if el, ok := s.entries[key]; ok {
		el.Value = e
		s.order.MoveToFront(el)
		return
	}
	s.entries[key] = s.order.PushFront(e)
	for s.order.Len() > s.capacity {
		s.remove(s.order.Back())
	}
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers asking for the same key. Load errors are not cached. A load that
// was in flight when Delete or Purge ran is returned to its callers but not
// stored, and later callers start a fresh load.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	flight := key + "\x00" + strconv.FormatUint(gen, 10)
	res, err, _ := s.group.Do(flight, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		s.setIfCurrent(key, v, gen)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if el, ok := s.entries[key]; ok {
		s.remove(el)
	}
}

// Purge drops every entry, for example after a change notification.
func (s *Store[V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.entries = make(map[string]*list.Element)
	s.order.Init()
}

// CleanExpired removes expired entries and returns how many were dropped.
func (s *Store[V]) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[V]).expires) {
			s.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Hits: s.hits, Misses: s.misses, Size: len(s.entries)}
}

func (s *Store[V]) remove(el *list.Element) {
	delete(s.entries, el.Value.(*entry[V]).key)
	s.order.Remove(el)
}
