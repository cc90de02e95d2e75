package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mayabot/maya/internal/database"
)

// Channel is the well-known pub/sub channel carrying cache invalidations.
const Channel = "cache-invalidation"

// Bus broadcasts invalidated cache keys between processes over Redis
// pub/sub. Delivery is best-effort and unordered; the receiving side applies
// invalidations locally without re-publishing, and each entry's TTL bounds
// the staleness window when a message is lost.
type Bus struct {
	rdb      *database.Redis
	originID string
	logger   *slog.Logger

	// invalidate is called with each remotely invalidated key.
	invalidate func(key string)
}

// NewBus creates a bus identified by a fresh origin id. Messages published
// by this process are recognized and skipped when Redis echoes them back.
func NewBus(rdb *database.Redis, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		rdb:      rdb,
		originID: uuid.NewString(),
		logger:   logger,
	}
}

// Publish implements Publisher by announcing key on the invalidation channel.
func (b *Bus) Publish(ctx context.Context, key string) error {
	if err := b.rdb.Publish(ctx, Channel, encodeMessage(b.originID, key)); err != nil {
		return fmt.Errorf("failed to publish invalidation for %q: %w", key, err)
	}
	busMessagesPublished.Inc()
	return nil
}

// Run consumes the invalidation channel until ctx is cancelled, applying
// each received key through invalidate. It blocks and is meant to run in its
// own goroutine.
func (b *Bus) Run(ctx context.Context, invalidate func(key string)) error {
	b.invalidate = invalidate

	sub := b.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("invalidation subscription closed")
			}
			b.handleMessage(msg.Payload)
		}
	}
}

// handleMessage applies one raw bus payload. Messages originating from this
// process are skipped so a published invalidation never loops back into a
// second publish.
func (b *Bus) handleMessage(payload string) {
	origin, key, err := decodeMessage(payload)
	if err != nil {
		b.logger.Warn("dropping malformed invalidation message",
			slog.String("payload", payload),
		)
		return
	}

	if origin == b.originID {
		busMessagesReceived.WithLabelValues("self").Inc()
		return
	}
	busMessagesReceived.WithLabelValues("remote").Inc()

	if b.invalidate != nil {
		b.invalidate(key)
	}
}

// encodeMessage formats a bus payload as "<origin>|<key>".
func encodeMessage(origin, key string) string {
	return origin + "|" + key
}

// decodeMessage splits a bus payload into origin and key. Keys may contain
// "|"-free separators only by convention; the split is on the first "|".
func decodeMessage(payload string) (origin, key string, err error) {
	origin, key, found := strings.Cut(payload, "|")
	if !found || origin == "" || key == "" {
		return "", "", fmt.Errorf("malformed invalidation message: %q", payload)
	}
	return origin, key, nil
}
