package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/internal/otel"
)

const keySessionEntry = "sneakerzone:session:%s:%s"

type RedisProvider struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProvider stores every entry with the given ttl, refreshed on each write. A zero ttl
// keeps entries until they are removed.
func NewRedisProvider(client *redis.Client, ttl time.Duration) *RedisProvider {
	return &RedisProvider{client: client, ttl: ttl}
}

func (p *RedisProvider) Session(id uuid.UUID) Store {
	return redisStore{client: p.client, ttl: p.ttl, sessionID: id}
}

type redisStore struct {
	client    *redis.Client
	ttl       time.Duration
	sessionID uuid.UUID
}

func (s redisStore) key(key string) string {
	return fmt.Sprintf(keySessionEntry, s.sessionID.String(), key)
}

func (s redisStore) Get(c context.Context, key string) (string, error) {
	c, span := otel.Tracer.Start(c, "redisStore Get", trace.WithAttributes(
		attribute.String("storage.key", s.key(key)),
	))
	defer span.End()

	value, err := s.client.Get(c, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed getting key=%s from redis with error=%w", s.key(key), err)
		otel.RecordError(err, span)
		return "", err
	}
	return value, nil
}

func (s redisStore) Set(c context.Context, key string, value string) error {
	c, span := otel.Tracer.Start(c, "redisStore Set", trace.WithAttributes(
		attribute.String("storage.key", s.key(key)),
	))
	defer span.End()

	if err := s.client.Set(c, s.key(key), value, s.ttl).Err(); err != nil {
		err = fmt.Errorf("failed setting key=%s in redis with error=%w", s.key(key), err)
		otel.RecordError(err, span)
		return err
	}
	return nil
}

func (s redisStore) Remove(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "redisStore Remove", trace.WithAttributes(
		attribute.String("storage.key", s.key(key)),
	))
	defer span.End()

	if err := s.client.Del(c, s.key(key)).Err(); err != nil {
		err = fmt.Errorf("failed deleting key=%s from redis with error=%w", s.key(key), err)
		otel.RecordError(err, span)
		return err
	}
	return nil
}
