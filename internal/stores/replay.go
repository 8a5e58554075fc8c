package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrReplayRedisUnavailable = errors.New("replay guard redis unavailable")
)

// ReplayGuard blacklists refresh token IDs so each refresh token is honored
// at most once. Insert-if-absent runs as a single SET NX, so concurrent
// attempts on the same ID resolve to exactly one winner.
type ReplayGuard struct {
	redis  redis.UniversalClient
	prefix string
}

func NewReplayGuard(redisClient redis.UniversalClient, prefix string) *ReplayGuard {
	if prefix == "" {
		prefix = "rjt"
	}
	return &ReplayGuard{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (g *ReplayGuard) key(tokenID string) string {
	return g.prefix + ":" + tokenID
}

// Blacklist records the token ID and reports whether this call inserted it.
// false means the ID was already present, i.e. a replay. The ttl should match
// the remaining life of the token; after that the ID can never validate again
// on expiry grounds, so the entry is safe to drop.
func (g *ReplayGuard) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}

	inserted, err := g.redis.SetNX(ctx, g.key(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrReplayRedisUnavailable, err)
	}

	return inserted, nil
}

// IsBlacklisted reports whether the token ID has been used before, without
// recording it.
func (g *ReplayGuard) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := g.redis.Exists(ctx, g.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrReplayRedisUnavailable, err)
	}
	return n > 0, nil
}
