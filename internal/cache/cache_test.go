package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published keys.
type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	return nil
}

// fakeClock drives a cache's notion of now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T) (*Cache, *fakeClock, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New("test", pub, nil)
	c.now = clock.Now
	return c, clock, pub
}

func TestCacheSetGet(t *testing.T) {
	c, _, _ := newTestCache(t)

	c.Set("session:abc", "value-1", 30*time.Second)

	value, absent, ok := c.Get("session:abc")
	require.True(t, ok)
	assert.False(t, absent)
	assert.Equal(t, "value-1", value)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	c, _, _ := newTestCache(t)

	_, absent, ok := c.Get("session:missing")
	assert.False(t, ok)
	assert.False(t, absent)
}

func TestCacheLazyExpiry(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.Set("account:123", "tok", 5*time.Second)

	// Still live just inside the TTL.
	clock.Advance(4 * time.Second)
	_, _, ok := c.Get("account:123")
	require.True(t, ok)

	// Past the TTL the entry is deleted and reported as a miss.
	clock.Advance(2 * time.Second)
	_, _, ok = c.Get("account:123")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheConfirmedAbsentDistinctFromMiss(t *testing.T) {
	c, clock, _ := newTestCache(t)

	c.SetAbsent("account:nobody", 5*time.Second)

	value, absent, ok := c.Get("account:nobody")
	require.True(t, ok, "confirmed absent must be a hit, not a miss")
	assert.True(t, absent)
	assert.Nil(t, value)

	// The marker expires like any other entry.
	clock.Advance(6 * time.Second)
	_, absent, ok = c.Get("account:nobody")
	assert.False(t, ok)
	assert.False(t, absent)
}

func TestCacheOverwriteReplacesAbsentMarker(t *testing.T) {
	c, _, _ := newTestCache(t)

	c.SetAbsent("connection:1:lichess", 5*time.Second)
	c.Set("connection:1:lichess", "linked", 30*time.Second)

	value, absent, ok := c.Get("connection:1:lichess")
	require.True(t, ok)
	assert.False(t, absent)
	assert.Equal(t, "linked", value)
}

func TestCacheInvalidatePublishes(t *testing.T) {
	c, _, pub := newTestCache(t)

	c.Set("session:abc", "v", time.Minute)
	c.Invalidate(context.Background(), "session:abc")

	_, _, ok := c.Get("session:abc")
	assert.False(t, ok)
	assert.Equal(t, []string{"session:abc"}, pub.keys)
}

func TestCacheInvalidateLocalDoesNotPublish(t *testing.T) {
	c, _, pub := newTestCache(t)

	c.Set("session:abc", "v", time.Minute)
	c.InvalidateLocal("session:abc")

	_, _, ok := c.Get("session:abc")
	assert.False(t, ok)
	assert.Empty(t, pub.keys)
}

func TestCacheInvalidateSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: assert.AnError}
	c := New("test", pub, nil)

	c.Set("account:1", "v", time.Minute)
	c.Invalidate(context.Background(), "account:1")

	// Local eviction stands even though the broadcast failed.
	_, _, ok := c.Get("account:1")
	assert.False(t, ok)
}

func TestCacheNilPublisher(t *testing.T) {
	c := New("local", nil, nil)

	c.Set("exec:1", "inst", time.Minute)
	c.Invalidate(context.Background(), "exec:1")

	_, _, ok := c.Get("exec:1")
	assert.False(t, ok)
}
