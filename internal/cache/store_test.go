package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/searchdeck/internal/db"
	"github.com/kailas-cloud/searchdeck/internal/db/redis"
	"github.com/kailas-cloud/searchdeck/internal/domain"
)

// --- mocks ---

type countingSource struct {
	calls atomic.Int32
	data  any
	err   error
	gate  chan struct{} // if set, Fetch blocks until closed
}

func (c *countingSource) source() Source {
	return Source{
		Fetch: func(ctx context.Context) (any, error) {
			c.calls.Add(1)
			if c.gate != nil {
				select {
				case <-c.gate:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return c.data, c.err
		},
		Decode: func(b []byte) (any, error) {
			var out []string
			err := json.Unmarshal(b, &out)
			return out, err
		},
	}
}

type mapSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapSnapshots() *mapSnapshots { return &mapSnapshots{data: map[string][]byte{}} }

func (m *mapSnapshots) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mapSnapshots) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapSnapshots) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapSnapshots) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// --- tests ---

func TestGet_MissThenHit(t *testing.T) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lookups"}, []string{"result"})
	s := New(Config{Lookups: lookups})
	src := &countingSource{data: []string{"a"}}

	e := s.Get(context.Background(), "/manage/users", src.source())
	if !e.HasData || e.IsLoading || e.Err != nil {
		t.Fatalf("unexpected entry: %+v", e)
	}
	s.Get(context.Background(), "/manage/users", src.source())

	if src.calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", src.calls.Load())
	}
	if got := testutil.ToFloat64(lookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(lookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
}

func TestGet_ConcurrentCallersShareOneFetch(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"cred-1"}, gate: make(chan struct{})}

	var wg sync.WaitGroup
	results := make([]Entry, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Get(context.Background(), "/manage/admin/credential", src.source())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if src.calls.Load() != 1 {
		t.Fatalf("expected exactly one network call, got %d", src.calls.Load())
	}
	for i, e := range results {
		got, _ := e.Data.([]string)
		if len(got) != 1 || got[0] != "cred-1" {
			t.Errorf("caller %d got %v", i, e.Data)
		}
	}
}

func TestGet_LoadingFlags(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"x"}, gate: make(chan struct{})}

	var mu sync.Mutex
	var seen []Entry
	unsub := s.Subscribe("k", func(e Entry) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})
	defer unsub()

	done := make(chan struct{})
	go func() {
		s.Get(context.Background(), "k", src.source())
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if !seen[0].IsLoading || !seen[0].IsValidating || seen[0].HasData {
		t.Errorf("first notification should be loading: %+v", seen[0])
	}
	if seen[1].IsLoading || seen[1].IsValidating || !seen[1].HasData {
		t.Errorf("second notification should carry data: %+v", seen[1])
	}
}

func TestRevalidate_NotifiesAllSubscribers(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"v1"}}
	s.Get(context.Background(), "k", src.source())

	var a, b atomic.Value
	unsubA := s.Subscribe("k", func(e Entry) { a.Store(e) })
	unsubB := s.Subscribe("k", func(e Entry) { b.Store(e) })
	defer unsubA()
	defer unsubB()

	src.data = []string{"v2"}
	s.Revalidate(context.Background(), "k", src.source())

	for name, v := range map[string]*atomic.Value{"a": &a, "b": &b} {
		e, _ := v.Load().(Entry)
		got, _ := e.Data.([]string)
		if len(got) != 1 || got[0] != "v2" {
			t.Errorf("subscriber %s saw %v", name, e.Data)
		}
	}
}

func TestRevalidate_KeepsDataWhileValidatingAndOnError(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"v1"}}
	s.Get(context.Background(), "k", src.source())

	var mu sync.Mutex
	var seen []Entry
	unsub := s.Subscribe("k", func(e Entry) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})
	defer unsub()

	src.err = errors.New("boom")
	e := s.Revalidate(context.Background(), "k", src.source())

	if e.Err == nil {
		t.Fatal("expected error in entry")
	}
	if got, _ := e.Data.([]string); len(got) != 1 || got[0] != "v1" {
		t.Errorf("stale data should survive a failed revalidation, got %v", e.Data)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen[0].IsLoading || !seen[0].IsValidating || !seen[0].HasData {
		t.Errorf("revalidation with data must not report loading: %+v", seen[0])
	}
}

func TestGet_ErrorOnlyEntryIsRefetched(t *testing.T) {
	s := New(Config{})
	src := &countingSource{err: errors.New("down")}

	if e := s.Get(context.Background(), "k", src.source()); e.Err == nil {
		t.Fatal("expected error")
	}
	src.err = nil
	src.data = []string{"ok"}
	if e := s.Get(context.Background(), "k", src.source()); e.Err != nil || !e.HasData {
		t.Fatalf("expected recovered entry, got %+v", e)
	}
	if src.calls.Load() != 2 {
		t.Errorf("expected 2 fetches, got %d", src.calls.Load())
	}
}

func TestSubscribe_UnsubscribeIdempotent(t *testing.T) {
	s := New(Config{})
	var calls atomic.Int32
	unsub := s.Subscribe("k", func(Entry) { calls.Add(1) })
	unsub()
	unsub()

	s.Revalidate(context.Background(), "k", (&countingSource{data: []string{}}).source())
	if calls.Load() != 0 {
		t.Errorf("listener called after unsubscribe: %d", calls.Load())
	}
}

func TestPoll_RevalidatesWithoutClearingData(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"v"}}
	s.Get(context.Background(), "k", src.source())

	var cleared atomic.Bool
	unsub := s.Subscribe("k", func(e Entry) {
		if !e.HasData {
			cleared.Store(true)
		}
	})
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	s.Poll(ctx, "k", 20*time.Millisecond, src.source())

	if src.calls.Load() < 3 {
		t.Errorf("expected several polls, got %d fetches", src.calls.Load())
	}
	if cleared.Load() {
		t.Error("poll must not clear displayed data")
	}
}

func TestPoll_ZeroIntervalReturns(t *testing.T) {
	s := New(Config{})
	s.Poll(context.Background(), "k", 0, (&countingSource{}).source())
}

func TestInvalidate(t *testing.T) {
	snaps := newMapSnapshots()
	s := New(Config{Snapshots: snaps})
	src := &countingSource{data: []string{"v"}}
	s.Get(context.Background(), "k", src.source())

	if !snaps.has(snapshotKey("k")) {
		t.Fatal("expected snapshot to be written")
	}

	s.Invalidate(context.Background(), "k")
	if e := s.Peek("k"); e.HasData {
		t.Errorf("expected empty entry, got %+v", e)
	}
	if snaps.has(snapshotKey("k")) {
		t.Error("expected snapshot to be deleted")
	}

	s.Get(context.Background(), "k", src.source())
	if src.calls.Load() != 2 {
		t.Errorf("expected refetch after invalidate, got %d fetches", src.calls.Load())
	}
}

func TestGet_RestoresSnapshotAndRevalidates(t *testing.T) {
	snaps := newMapSnapshots()
	_ = snaps.SetWithTTL(context.Background(), snapshotKey("k"), []byte(`["cached"]`), time.Minute)

	s := New(Config{Snapshots: snaps})
	src := &countingSource{data: []string{"fresh"}, gate: make(chan struct{})}

	e := s.Get(context.Background(), "k", src.source())
	if got, _ := e.Data.([]string); len(got) != 1 || got[0] != "cached" {
		t.Fatalf("expected snapshot data, got %v", e.Data)
	}
	if e.IsLoading || !e.IsValidating {
		t.Errorf("snapshot entry should be validating, not loading: %+v", e)
	}

	close(src.gate)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got, _ := s.Peek("k").Data.([]string); len(got) == 1 && got[0] == "fresh" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background revalidation did not replace snapshot data")
}

func TestGet_SnapshotFromRedis(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "searchdeck:resource:/manage/users")).
		Return(mock.Result(mock.RedisBlobString(`["alice"]`)))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "searchdeck:resource:/manage/users" && cmd[2] == `["bob"]`
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := New(Config{Snapshots: redis.NewStoreForTest(c), SnapshotTTL: time.Minute})
	src := &countingSource{data: []string{"bob"}, gate: make(chan struct{})}

	e := s.Get(context.Background(), "/manage/users", src.source())
	if got, _ := e.Data.([]string); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("expected redis snapshot, got %v", e.Data)
	}

	done := make(chan struct{})
	unsub := s.Subscribe("/manage/users", func(e Entry) {
		if !e.IsValidating {
			close(done)
		}
	})
	defer unsub()
	close(src.gate)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background revalidation did not finish")
	}
	// let the snapshot write complete before the mock controller finishes
	time.Sleep(20 * time.Millisecond)
}

func TestGet_SnapshotMissFallsBackToFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "searchdeck:resource:k")).
		Return(mock.Result(mock.RedisNil()))
	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.RedisString("OK")))

	s := New(Config{Snapshots: redis.NewStoreForTest(c)})
	src := &countingSource{data: []string{"v"}}

	e := s.Get(context.Background(), "k", src.source())
	if !e.HasData || src.calls.Load() != 1 {
		t.Fatalf("expected fetched entry, got %+v", e)
	}
}

func TestGet_CallerCancelDoesNotFailSharedFetch(t *testing.T) {
	s := New(Config{})
	src := &countingSource{data: []string{"u1"}, gate: make(chan struct{})}
	key := "/manage/users"

	var mu sync.Mutex
	var last Entry
	unsub := s.Subscribe(key, func(e Entry) {
		mu.Lock()
		last = e
		mu.Unlock()
	})
	defer unsub()

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan Entry, 1)
	go func() { doneA <- s.Get(ctxA, key, src.source()) }()

	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancelA()
	a := <-doneA
	if a.Err != nil {
		t.Errorf("cancelled caller must not see an error, got %v", a.Err)
	}

	doneB := make(chan Entry, 1)
	go func() { doneB <- s.Get(context.Background(), key, src.source()) }()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	b := <-doneB

	if b.Err != nil || !b.HasData {
		t.Fatalf("live caller: err=%v hasData=%v", b.Err, b.HasData)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("expected one shared fetch, got %d", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if last.Err != nil || !last.HasData {
		t.Errorf("subscriber saw err=%v hasData=%v", last.Err, last.HasData)
	}
}

func TestRevalidate_CancellationIsNotStored(t *testing.T) {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fetches"}, []string{"status"})
	s := New(Config{Fetches: fetches})
	key := "/manage/admin/credential"

	ok := &countingSource{data: []string{"cred-1"}}
	s.Get(context.Background(), key, ok.source())

	for _, err := range []error{context.Canceled, fmt.Errorf("stream: %w", domain.ErrCancelled)} {
		aborted := &countingSource{err: err}
		e := s.Revalidate(context.Background(), key, aborted.source())
		if e.Err != nil {
			t.Errorf("%v: cancellation stored as error", err)
		}
		if got, _ := e.Data.([]string); len(got) != 1 || got[0] != "cred-1" {
			t.Errorf("%v: data lost: %v", err, e.Data)
		}
		if e.IsValidating || e.IsLoading {
			t.Errorf("%v: flags not cleared: %+v", err, e)
		}
	}
	if got := testutil.ToFloat64(fetches.WithLabelValues("cancelled")); got != 2 {
		t.Errorf("expected 2 cancelled fetches, got %v", got)
	}
}

func TestRevalidate_FetchTimeout(t *testing.T) {
	s := New(Config{FetchTimeout: 20 * time.Millisecond})
	src := &countingSource{data: []string{"x"}, gate: make(chan struct{})}
	defer close(src.gate)

	e := s.Revalidate(context.Background(), "/manage/users", src.source())
	if !errors.Is(e.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", e.Err)
	}
	if e.IsLoading {
		t.Error("loading flag must be cleared")
	}
}
