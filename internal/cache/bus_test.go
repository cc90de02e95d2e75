package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	origin, key, err := decodeMessage("proc-1|session:abc")
	require.NoError(t, err)
	assert.Equal(t, "proc-1", origin)
	assert.Equal(t, "session:abc", key)
}

func TestDecodeMessageKeyMayContainSeparator(t *testing.T) {
	// Only the first separator splits; the rest belongs to the key.
	origin, key, err := decodeMessage("proc-1|weird|key")
	require.NoError(t, err)
	assert.Equal(t, "proc-1", origin)
	assert.Equal(t, "weird|key", key)
}

func TestDecodeMessageMalformed(t *testing.T) {
	for _, payload := range []string{"", "no-separator", "|key", "origin|"} {
		_, _, err := decodeMessage(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	origin, key, err := decodeMessage(encodeMessage("abc", "account:42"))
	require.NoError(t, err)
	assert.Equal(t, "abc", origin)
	assert.Equal(t, "account:42", key)
}

func TestBusAppliesRemoteInvalidation(t *testing.T) {
	b := NewBus(nil, nil)

	var invalidated []string
	b.invalidate = func(key string) {
		invalidated = append(invalidated, key)
	}

	b.handleMessage(encodeMessage("remote-process", "session:abc"))
	assert.Equal(t, []string{"session:abc"}, invalidated)
}

func TestBusSkipsOwnMessages(t *testing.T) {
	b := NewBus(nil, nil)

	var invalidated []string
	b.invalidate = func(key string) {
		invalidated = append(invalidated, key)
	}

	// Redis delivers published messages back to the publisher; applying them
	// again must not re-enter the publish path or evict twice.
	b.handleMessage(encodeMessage(b.originID, "session:abc"))
	assert.Empty(t, invalidated)
}

func TestBusDropsMalformedMessages(t *testing.T) {
	b := NewBus(nil, nil)

	called := false
	b.invalidate = func(string) { called = true }

	b.handleMessage("garbage")
	assert.False(t, called)
}

func TestBusEndToEndEviction(t *testing.T) {
	// A remote invalidation evicts the local entry without publishing.
	pub := &recordingPublisher{}
	c := New("data", pub, nil)
	c.Set("account:1", "v", time.Minute)

	b := NewBus(nil, nil)
	b.invalidate = c.InvalidateLocal

	b.handleMessage(encodeMessage("remote-process", "account:1"))

	_, _, ok := c.Get("account:1")
	assert.False(t, ok)
	assert.Empty(t, pub.keys, "remote eviction must not re-publish")
}
