// Package cache keeps recently fetched boards in Redis so reopening a board
// does not refetch it. Every write path evicts the board it touched.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"nexus/internal/api"
	"nexus/internal/kanban/models"
	"nexus/internal/logs"
)

type backend interface {
	GetBoardMetadata(ctx context.Context, boardID string) (models.Board, error)
	GetBoardDetails(ctx context.Context, boardID string) (api.BoardDetails, error)
}

// Cache wraps a board source with Redis-backed caching for reads.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis unreachable: %w", err)
	}
	return client, nil
}

// New creates a caching wrapper. A nil client disables caching.
func New(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("cache.New: base is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// GetBoardMetadata serves metadata from Redis when present.
func (c *Cache) GetBoardMetadata(ctx context.Context, boardID string) (models.Board, error) {
	var board models.Board
	if c.load(ctx, metadataKey(boardID), &board) {
		return board, nil
	}
	board, err := c.base.GetBoardMetadata(ctx, boardID)
	if err != nil {
		return models.Board{}, err
	}
	c.store(ctx, metadataKey(boardID), board)
	return board, nil
}

// GetBoardDetails serves lists and cards from Redis when present.
func (c *Cache) GetBoardDetails(ctx context.Context, boardID string) (api.BoardDetails, error) {
	var details api.BoardDetails
	if c.load(ctx, detailsKey(boardID), &details) {
		return details, nil
	}
	details, err := c.base.GetBoardDetails(ctx, boardID)
	if err != nil {
		return api.BoardDetails{}, err
	}
	c.store(ctx, detailsKey(boardID), details)
	return details, nil
}

// Invalidate evicts a board.
func (c *Cache) Invalidate(ctx context.Context, boardID string) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, metadataKey(boardID), detailsKey(boardID)).Err()
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logs.Logger.WithError(err).WithField("key", key).Warn("cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logs.Logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func metadataKey(boardID string) string {
	return "nexus:board:" + boardID + ":metadata"
}

func detailsKey(boardID string) string {
	return "nexus:board:" + boardID + ":details"
}
