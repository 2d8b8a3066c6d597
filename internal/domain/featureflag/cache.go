package featureflag

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FlagCache is the caching port for flag evaluation. Evaluation sits on
// the request path of every club API call, so reads must not hit Postgres.
//
// Layering: a local in-process map in front of Redis, with the database as
// the source of truth behind both.
//
// Key layout:
//
//	feature_flag:{key}
//	feature_flag:override:{flag_key}:{target_type}:{target_id}
type FlagCache interface {
	// Get returns nil, nil on a cache miss.
	Get(ctx context.Context, key string) (*FeatureFlag, error)

	// Set caches a flag; ttl 0 means the implementation default.
	Set(ctx context.Context, key string, flag *FeatureFlag, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// GetOverride returns nil, nil on a cache miss.
	GetOverride(ctx context.Context, flagKey string, targetType OverrideTargetType, targetID uuid.UUID) (*FlagOverride, error)

	SetOverride(ctx context.Context, override *FlagOverride, ttl time.Duration) error

	DeleteOverride(ctx context.Context, flagKey string, targetType OverrideTargetType, targetID uuid.UUID) error

	// InvalidateAll drops every cached flag and override, e.g. after a
	// bulk import.
	InvalidateAll(ctx context.Context) error

	Close() error
}

// CacheUpdateAction tags a pub/sub invalidation message.
type CacheUpdateAction string

const (
	CacheUpdateActionUpdated         CacheUpdateAction = "updated"
	CacheUpdateActionDeleted         CacheUpdateAction = "deleted"
	CacheUpdateActionOverrideUpdated CacheUpdateAction = "override_updated"
	CacheUpdateActionOverrideDeleted CacheUpdateAction = "override_deleted"
	CacheUpdateActionInvalidateAll   CacheUpdateAction = "invalidate_all"
)

// CacheUpdateMessage travels over Redis pub/sub so every server instance
// drops its local copy when a flag changes.
type CacheUpdateMessage struct {
	Action     CacheUpdateAction `json:"action"`
	FlagKey    string            `json:"flag_key,omitempty"`
	TargetType string            `json:"target_type,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	Timestamp  int64             `json:"timestamp"`
}

// CacheInvalidator fans invalidation messages out across instances.
type CacheInvalidator interface {
	Publish(ctx context.Context, msg CacheUpdateMessage) error

	// Subscribe blocks, invoking callback per message, until ctx is
	// cancelled. Run it in its own goroutine.
	Subscribe(ctx context.Context, callback func(msg CacheUpdateMessage)) error

	Close() error
}

// TieredFlagCache layers the local map over Redis. Reads fall through
// local, then Redis, then the database; writes go to Redis and invalidate
// the local layer everywhere via pub/sub.
type TieredFlagCache interface {
	FlagCache

	// GetL1 reads only the local layer, skipping Redis.
	GetL1(ctx context.Context, key string) (*FeatureFlag, error)

	SetL1(ctx context.Context, key string, flag *FeatureFlag, ttl time.Duration) error

	InvalidateL1(ctx context.Context, key string) error

	GetCacheStats(ctx context.Context) CacheStats
}

// CacheStats is what the admin diagnostics endpoint reports.
type CacheStats struct {
	L1Hits       int64   `json:"l1_hits"`
	L1Misses     int64   `json:"l1_misses"`
	L2Hits       int64   `json:"l2_hits"`
	L2Misses     int64   `json:"l2_misses"`
	TotalHits    int64   `json:"total_hits"`
	TotalMisses  int64   `json:"total_misses"`
	HitRatio     float64 `json:"hit_ratio"`
	CacheEntries int64   `json:"cache_entries"`
}

// CacheConfig tunes the two cache layers. The local TTL is deliberately
// short; pub/sub handles the common case and the TTL only bounds staleness
// when a message is lost.
type CacheConfig struct {
	FlagTTL       time.Duration
	OverrideTTL   time.Duration
	L1TTL         time.Duration
	L1MaxSize     int
	PubSubChannel string
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		FlagTTL:       60 * time.Second,
		OverrideTTL:   60 * time.Second,
		L1TTL:         10 * time.Second,
		L1MaxSize:     10000,
		PubSubChannel: "feature_flag:updates",
	}
}
