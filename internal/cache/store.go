// Package cache is a keyed stale-while-revalidate store shared by every
// consumer of a resource. One fetch per key is in flight at a time; all
// subscribers of a key see the same entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/searchdeck/internal/db"
	"github.com/kailas-cloud/searchdeck/internal/domain"
)

const (
	defaultSnapshotTTL  = 10 * time.Minute
	defaultFetchTimeout = 30 * time.Second
)

// Source knows how to load one resource.
type Source struct {
	// Fetch loads fresh data from the backend.
	Fetch func(ctx context.Context) (any, error)
	// Decode turns a persisted JSON snapshot back into data. Nil disables snapshot restore.
	Decode func([]byte) (any, error)
}

// Entry is the observable state of one key.
type Entry struct {
	Data         any
	HasData      bool
	Err          error
	UpdatedAt    time.Time
	IsLoading    bool // fetching with nothing to show yet
	IsValidating bool // any fetch in flight
}

// Listener receives the entry after every state change of its key.
// Listeners run synchronously and must not call Get or Revalidate.
type Listener func(Entry)

// Snapshotter persists successful fetches across restarts.
type Snapshotter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Config holds store dependencies. Every field is optional.
type Config struct {
	Snapshots   Snapshotter
	SnapshotTTL time.Duration
	// FetchTimeout bounds a shared fetch, which outlives the caller that started it.
	FetchTimeout time.Duration
	Lookups      *prometheus.CounterVec // labels: result
	Fetches      *prometheus.CounterVec // labels: status
	Logger       *zap.Logger
}

type slot struct {
	entry Entry
	subs  map[uint64]Listener
}

// Store is the resource cache. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex // keeps listener calls in state-change order
	slots    map[string]*slot
	nextSub  uint64
	group    singleflight.Group

	snapshots    Snapshotter
	snapshotTTL  time.Duration
	fetchTimeout time.Duration
	lookups      *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	logger       *zap.Logger
}

// New creates a store.
func New(cfg Config) *Store {
	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		slots:        make(map[string]*slot),
		snapshots:    cfg.Snapshots,
		snapshotTTL:  ttl,
		fetchTimeout: timeout,
		lookups:      cfg.Lookups,
		fetches:      cfg.Fetches,
		logger:       logger,
	}
}

// Peek returns the current entry without fetching.
func (s *Store) Peek(key string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[key]; ok {
		return sl.entry
	}
	return Entry{}
}

// Get returns the cached entry when it holds data, or loads it. A cold key is
// served from the snapshot tier when possible and revalidated in the
// background. Keys holding only an error are refetched.
func (s *Store) Get(ctx context.Context, key string, src Source) Entry {
	s.mu.Lock()
	entry := s.slot(key).entry
	s.mu.Unlock()

	if entry.HasData {
		s.count(s.lookups, "hit")
		return entry
	}

	if data, ok := s.restore(ctx, key, src); ok {
		s.count(s.lookups, "snapshot")
		restored := s.update(key, func(e *Entry) {
			e.Data = data
			e.HasData = true
			e.IsValidating = true
		})
		go s.Revalidate(context.WithoutCancel(ctx), key, src)
		return restored
	}

	s.count(s.lookups, "miss")
	return s.Revalidate(ctx, key, src)
}

// Revalidate refetches key. Concurrent calls for the same key share one fetch.
// Data already held stays visible while the fetch runs and after it fails.
// The shared fetch is detached from ctx: a caller that goes away stops
// waiting and gets the current entry, while the others still get the result.
func (s *Store) Revalidate(ctx context.Context, key string, src Source) Entry {
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, src), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Entry)
	case <-ctx.Done():
		return s.Peek(key)
	}
}

func (s *Store) fetch(ctx context.Context, key string, src Source) Entry {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	s.update(key, func(e *Entry) {
		e.IsValidating = true
		e.IsLoading = !e.HasData
	})

	data, err := src.Fetch(ctx)
	cancelled := isCancellation(err)

	final := s.update(key, func(e *Entry) {
		e.IsLoading = false
		e.IsValidating = false
		switch {
		case cancelled:
		case err != nil:
			e.Err = err
		default:
			e.Data = data
			e.HasData = true
			e.Err = nil
			e.UpdatedAt = time.Now()
		}
	})

	switch {
	case cancelled:
		s.count(s.fetches, "cancelled")
		s.logger.Debug("resource fetch cancelled", zap.String("key", key), zap.Error(err))
	case err != nil:
		s.count(s.fetches, "error")
		s.logger.Warn("resource fetch failed", zap.String("key", key), zap.Error(err))
	default:
		s.count(s.fetches, "ok")
		s.persist(ctx, key, data)
	}
	return final
}

// isCancellation reports whether err only says the work was abandoned.
func isCancellation(err error) bool {
	return errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled)
}

// Invalidate drops the cached data for key. Subscribers stay registered and
// receive the emptied entry.
func (s *Store) Invalidate(ctx context.Context, key string) {
	s.update(key, func(e *Entry) { *e = Entry{} })

	if s.snapshots != nil {
		if err := s.snapshots.Del(ctx, snapshotKey(key)); err != nil {
			s.logger.Warn("snapshot delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Subscribe registers fn for changes of key. The returned func releases the
// subscription and is safe to call more than once.
func (s *Store) Subscribe(key string, fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	sl := s.slot(key)
	s.nextSub++
	id := s.nextSub
	sl.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sl, ok := s.slots[key]; ok {
				delete(sl.subs, id)
			}
		})
	}
}

// Poll revalidates key every interval until ctx is done. Displayed data is
// never cleared between polls.
func (s *Store) Poll(ctx context.Context, key string, interval time.Duration, src Source) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Revalidate(ctx, key, src)
		}
	}
}

// update applies fn to the entry of key and notifies subscribers in order.
func (s *Store) update(key string, fn func(*Entry)) Entry {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	sl := s.slot(key)
	fn(&sl.entry)
	entry := sl.entry
	listeners := make([]Listener, 0, len(sl.subs))
	for _, l := range sl.subs {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(entry)
	}
	return entry
}

// slot returns the slot for key, creating it. Caller holds s.mu.
func (s *Store) slot(key string) *slot {
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{subs: make(map[uint64]Listener)}
		s.slots[key] = sl
	}
	return sl
}

func (s *Store) restore(ctx context.Context, key string, src Source) (any, bool) {
	if s.snapshots == nil || src.Decode == nil {
		return nil, false
	}
	raw, err := s.snapshots.Get(ctx, snapshotKey(key))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("snapshot read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	data, err := src.Decode(raw)
	if err != nil {
		s.logger.Warn("snapshot decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (s *Store) persist(ctx context.Context, key string, data any) {
	if s.snapshots == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("snapshot encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.snapshots.SetWithTTL(ctx, snapshotKey(key), raw, s.snapshotTTL); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) count(vec *prometheus.CounterVec, label string) {
	if vec != nil {
		vec.WithLabelValues(label).Inc()
	}
}

func snapshotKey(key string) string {
	return domain.KeyPrefix + "resource:" + key
}
