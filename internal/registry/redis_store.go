package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/notiongate/notiongate/internal/schema"
)

const redisKeyPrefix = "notiongate:schema:"

// RedisStore keeps one JSON document per database id under a key prefix
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given redis address
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// List scans all schema keys and loads every record
func (rs *RedisStore) List(ctx context.Context) ([]*schema.Schema, error) {
	var schemas []*schema.Schema

	iter := rs.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := rs.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to read schema key %s: %v", iter.Val(), err)
		}
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode schema key %s: %v", iter.Val(), err)
		}
		schemas = append(schemas, &s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan schema keys: %v", err)
	}
	return schemas, nil
}

// Load reads a single schema record, nil when absent
func (rs *RedisStore) Load(ctx context.Context, id string) (*schema.Schema, error) {
	data, err := rs.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %v", id, err)
	}
	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %v", id, err)
	}
	return &s, nil
}

// Save writes a schema record
func (rs *RedisStore) Save(ctx context.Context, s *schema.Schema) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode schema %s: %v", s.ID, err)
	}
	if err := rs.client.Set(ctx, redisKeyPrefix+s.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema %s: %v", s.ID, err)
	}
	return nil
}

// Delete removes a schema record
func (rs *RedisStore) Delete(ctx context.Context, id string) error {
	if err := rs.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete schema %s: %v", id, err)
	}
	return nil
}

// Close releases the redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
