package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock hands out a controllable time.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStoreGetPut(t *testing.T) {
	s := NewStore(10, 30*time.Second)
	clock := newFakeClock()
	s.SetClock(clock.now)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Put("k", "v")
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStoreValidityWindow(t *testing.T) {
	s := NewStore(10, 30*time.Second)
	clock := newFakeClock()
	s.SetClock(clock.now)

	s.Put("k", "v")

	clock.advance(29 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok, "entry inside the validity window should hit")

	clock.advance(2 * time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok, "entry past the validity window should miss")
}

func TestStoreBoundEvictsOldest(t *testing.T) {
	s := NewStore(20, 5*time.Minute)
	clock := newFakeClock()
	s.SetClock(clock.now)

	// 25 writes with distinct timestamps into a store bounded at 20.
	for i := 0; i < 25; i++ {
		s.Put(fmt.Sprintf("k%02d", i), i)
		clock.advance(time.Millisecond)
	}

	assert.LessOrEqual(t, s.Len(), 20, "store must never exceed its bound")

	// The 5 oldest-by-timestamp entries are the ones evicted.
	for i := 0; i < 5; i++ {
		_, ok := s.Get(fmt.Sprintf("k%02d", i))
		assert.False(t, ok, "k%02d should have been evicted", i)
	}
	for i := 5; i < 25; i++ {
		_, ok := s.Get(fmt.Sprintf("k%02d", i))
		assert.True(t, ok, "k%02d should survive", i)
	}
}

func TestSweepRemovesTimestampTiesTogether(t *testing.T) {
	s := NewStore(3, 5*time.Minute)
	clock := newFakeClock()
	s.SetClock(clock.now)

	// Two entries share the oldest timestamp (written in the same tick).
	s.Put("old1", 1)
	s.Put("old2", 2)
	clock.advance(time.Second)
	s.Put("new1", 3)
	s.Put("new2", 4)

	// Over bound by one, but both timestamp ties go together.
	s.Sweep()
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("old1")
	assert.False(t, ok)
	_, ok = s.Get("old2")
	assert.False(t, ok)
	_, ok = s.Get("new1")
	assert.True(t, ok)
}

func TestSweepDropsStaleBeforeBounding(t *testing.T) {
	s := NewStore(10, 30*time.Second)
	clock := newFakeClock()
	s.SetClock(clock.now)

	s.Put("stale", 1)
	clock.advance(time.Minute)
	s.Put("fresh", 2)

	s.Sweep()
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("fresh")
	assert.True(t, ok)
}

func TestManagerReset(t *testing.T) {
	m := NewManager()
	m.Nodes.Put("a", 1)
	m.Derived.Put("b", 2)

	m.Reset()
	assert.Equal(t, 0, m.Nodes.Len())
	assert.Equal(t, 0, m.Derived.Len())
}
