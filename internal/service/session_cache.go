package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// sessionCache keeps a short-lived operator/terminal → active session id
// mapping in Redis so the per-sale linkage lookup skips a table scan. It is
// strictly an accelerator: every hit is re-verified against the store, and a
// nil client degrades to plain DB lookups.
type sessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func newSessionCache(rdb *redis.Client) *sessionCache {
	return &sessionCache{rdb: rdb, ttl: 30 * time.Second}
}

func cacheKey(operatorID uuid.UUID, terminalID *string) string {
	term := ""
	if terminalID != nil {
		term = *terminalID
	}
	return "cash:active:" + operatorID.String() + ":" + term
}

func (c *sessionCache) get(ctx context.Context, operatorID uuid.UUID, terminalID *string) (uuid.UUID, bool) {
	if c == nil || c.rdb == nil {
		return uuid.Nil, false
	}
	val, err := c.rdb.Get(ctx, cacheKey(operatorID, terminalID)).Result()
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *sessionCache) set(ctx context.Context, operatorID uuid.UUID, terminalID *string, sessionID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(operatorID, terminalID), sessionID.String(), c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("session cache set failed")
	}
}

func (c *sessionCache) invalidate(ctx context.Context, operatorID uuid.UUID, terminalID *string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(operatorID, terminalID)).Err(); err != nil {
		log.Warn().Err(err).Msg("session cache invalidate failed")
	}
}
