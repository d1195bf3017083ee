package subtopic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/quiz-admin/internal/question"
)

const defaultCacheTTL = 5 * time.Minute

// Cache stores subtopic listings per caller credential.
type Cache interface {
	Get(ctx context.Context, token string) ([]question.Subtopic, bool, error)
	Set(ctx context.Context, token string, subtopics []question.Subtopic) error
}

// RedisCache keeps listings as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// key scopes entries to a digest of the token so one caller never reads
// another caller's listing.
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "subtopics:" + hex.EncodeToString(sum[:16])
}

func (c *RedisCache) Get(ctx context.Context, token string) ([]question.Subtopic, bool, error) {
	data, err := c.client.Get(ctx, key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var subtopics []question.Subtopic
	if err := json.Unmarshal(data, &subtopics); err != nil {
		return nil, false, err
	}
	return subtopics, true, nil
}

func (c *RedisCache) Set(ctx context.Context, token string, subtopics []question.Subtopic) error {
	data, err := json.Marshal(subtopics)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(token), data, c.ttl).Err()
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]question.Subtopic, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, string, []question.Subtopic) error { return nil }
