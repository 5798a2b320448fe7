package snapshots

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/northfarm/sales-backend/pkg/logger"
	"github.com/northfarm/sales-backend/pkg/redis"
)

// Subscriber consumes the snapshot channel and applies each message to the
// cache. Running it on every instance keeps multi-replica deployments
// serving the same live view.
type Subscriber struct {
	client  *redis.Client
	channel string
	cache   *Cache
	logg    *logger.Logger
}

// NewSubscriber wires a snapshot subscriber onto the shared cache.
func NewSubscriber(client *redis.Client, channel string, cache *Cache, logg *logger.Logger) *Subscriber {
	return &Subscriber{client: client, channel: channel, cache: cache, logg: logg}
}

// Run blocks consuming snapshot messages until the context is cancelled.
// Malformed payloads are logged and skipped.
func (s *Subscriber) Run(ctx context.Context) error {
	sub, err := s.client.Subscribe(ctx, s.channel)
	if err != nil {
		return err
	}
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.apply(ctx, msg)
		}
	}
}

func (s *Subscriber) apply(ctx context.Context, msg *goredis.Message) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "discarding malformed snapshot payload", err)
		}
		return
	}
	s.cache.ApplySnapshot(snap)
	if s.logg != nil {
		s.logg.Info(ctx, "applied ledger snapshot")
	}
}
