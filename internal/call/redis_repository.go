package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	callKeyPrefix = "call:"
	callIndexKey  = "calls:index"
)

// RedisRepository stores call records as JSON documents keyed by call id,
// with a set index for scans. Calls are retained for review and carry no TTL.
type RedisRepository struct {
	redis  *redis.Client
	tracer trace.Tracer
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository builds a Redis-backed call repository.
func NewRedisRepository(redisClient *redis.Client) *RedisRepository {
	if redisClient == nil {
		panic("call: redis client cannot be nil")
	}
	return &RedisRepository{
		redis:  redisClient,
		tracer: otel.Tracer("aira.internal.call.redis"),
	}
}

// Save writes the call document and its index entry atomically.
func (r *RedisRepository) Save(ctx context.Context, c *Call) error {
	if c == nil || c.ID == "" {
		return errors.New("call: cannot save call without id")
	}

	ctx, span := r.tracer.Start(ctx, "call.redis.save")
	defer span.End()

	data, err := json.Marshal(c)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("call: marshal call %s: %w", c.ID, err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, callKey(c.ID), data, 0)
	pipe.SAdd(ctx, callIndexKey, c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("call: persist call %s: %w", c.ID, err)
	}
	return nil
}

// Get loads one call document.
func (r *RedisRepository) Get(ctx context.Context, id string) (*Call, error) {
	ctx, span := r.tracer.Start(ctx, "call.redis.get")
	defer span.End()

	data, err := r.redis.Get(ctx, callKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("call: load call %s: %w", id, err)
	}

	var c Call
	if err := json.Unmarshal(data, &c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("call: decode call %s: %w", id, err)
	}
	return &c, nil
}

// List scans the index and returns matching calls newest first. Documents
// that disappear between the index read and the fetch are skipped.
func (r *RedisRepository) List(ctx context.Context, f Filter) ([]*Call, error) {
	ctx, span := r.tracer.Start(ctx, "call.redis.list")
	defer span.End()

	ids, err := r.redis.SMembers(ctx, callIndexKey).Result()
	if err != nil {
		if err == redis.Nil {
			return []*Call{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("call: scan index: %w", err)
	}
	if len(ids) == 0 {
		return []*Call{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = callKey(id)
	}
	raw, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("call: fetch calls: %w", err)
	}

	out := make([]*Call, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			continue
		}
		var c Call
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			span.RecordError(err)
			continue
		}
		if f.Matches(&c) {
			out = append(out, &c)
		}
	}
	sortByStartDesc(out)
	return out, nil
}

func callKey(id string) string {
	return callKeyPrefix + id
}
