package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(ttl)
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_SetGet(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Set("k", "v")
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestMemoryStore_ExpiryEvictsOnRead(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.Set("k", 1)

	clock.t = clock.t.Add(59 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Second)
	assert.Equal(t, 1, s.Len(), "expired entries stay until read")
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_NoTTLNeverExpires(t *testing.T) {
	s, clock := newTestStore(0)
	s.Set("k", "forever")
	clock.t = clock.t.Add(1000 * time.Hour)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "forever", v)
}

func TestMemoryStore_SetRestartsTTL(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.Set("k", "a")
	clock.t = clock.t.Add(50 * time.Second)
	s.Set("k", "b")
	clock.t = clock.t.Add(50 * time.Second)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestMemoryStore_DeleteAndClear(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Set("a", 1)
	s.Set("b", 2)

	v, ok := s.Delete("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = s.Delete("a")
	assert.False(t, ok)

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewDefaultMemoryStore()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			s.Set(key, i)
			_, _ = s.Get(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, s.Len())
}
