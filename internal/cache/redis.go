package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wanderio/tourbooking/config"
	"github.com/wanderio/tourbooking/internal/domain"
)

// RedisCache keeps the catalog listings hot. Booking rows are never cached:
// they change on every mutation and correctness matters more than latency.
type RedisCache struct {
	client     *redis.Client
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL: catalogTTL,
	}
}

// NewRedisCacheWithClient is used by tests to inject a mock client.
func NewRedisCacheWithClient(client *redis.Client, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, catalogTTL: catalogTTL}
}

func (c *RedisCache) GetSubjects(ctx context.Context, kind domain.SubjectKind) ([]domain.Subject, error) {
	data, err := c.client.Get(ctx, catalogKey(kind)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var subjects []domain.Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *RedisCache) SetSubjects(ctx context.Context, kind domain.SubjectKind, subjects []domain.Subject) error {
	payload, err := json.Marshal(subjects)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey(kind), payload, c.catalogTTL).Err()
}

func (c *RedisCache) InvalidateSubjects(ctx context.Context, kind domain.SubjectKind) error {
	return c.client.Del(ctx, catalogKey(kind)).Err()
}

func catalogKey(kind domain.SubjectKind) string {
	switch kind {
	case domain.SubjectKindPackage:
		return "cache:catalog:packages"
	default:
		return "cache:catalog:tours"
	}
}
