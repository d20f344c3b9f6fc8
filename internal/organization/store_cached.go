package organization

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "tributo/internal/platform/redis"
	id "tributo/pkg/domain"
)

// cacheTTL bounds staleness of tenant config. Plan or webhook changes take
// at most this long to reach the emission path.
const cacheTTL = 5 * time.Minute

// CachedStore layers a Redis read-through cache over another Store. Cache
// failures degrade to the inner store; they are logged, never surfaced.
type CachedStore struct {
	inner  Store
	redis  *platformredis.Client
	logger *slog.Logger
}

func NewCached(inner Store, redis *platformredis.Client, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		inner:  inner,
		redis:  redis,
		logger: logger,
	}
}

func (s *CachedStore) GetOrganization(ctx context.Context, orgID id.OrgID) (*Organization, error) {
	key := cacheKey(orgID)

	if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
		var org Organization
		if err := json.Unmarshal(raw, &org); err == nil {
			return &org, nil
		}
		// Corrupt entry: drop it and fall through to the inner store.
		_ = s.redis.Del(ctx, key).Err()
	}

	org, err := s.inner.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(org); err == nil {
		if err := s.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			s.logger.Warn("organization cache write failed", "org_id", orgID.String(), "error", err)
		}
	}

	return org, nil
}

func cacheKey(orgID id.OrgID) string {
	return "tributo:org:" + orgID.String()
}
