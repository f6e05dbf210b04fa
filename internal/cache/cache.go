package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"prophet/internal/adapters/config"
	"prophet/pkg/errors"
)

// Cache stores rendered prediction responses in Redis for a bounded TTL.
// Inference on identical payloads is deterministic, so a hit is always
// safe to serve.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Redis-backed cache and verifies connectivity
func New(cfg config.CacheConfig) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}

	return NewFromClient(rdb, cfg.TTL), nil
}

// NewFromClient wraps an existing Redis client without a connectivity check
func NewFromClient(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key derives a deterministic cache key from the endpoint, the selected
// models and the full request payload. Every payload field participates
// because cached bodies echo the payload back verbatim.
func Key(endpoint string, models []string, payload map[string]interface{}) string {
	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, m := range models {
		b.WriteByte('|')
		b.WriteString(m)
	}
	for _, f := range fields {
		b.WriteByte('|')
		b.WriteString(f)
		b.WriteByte('=')
		switch v := payload[f].(type) {
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "prediction:" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached response into dest, reporting whether it was found
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a response under key for the configured TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Health checks Redis connectivity
func (c *Cache) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.rdb.Close()
}
