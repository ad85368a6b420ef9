package prompt

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
	promptKeyPrefix = "prompt:"
	promptIndexKey  = "prompts:index"
)

// RedisRepository stores prompt rows as JSON documents keyed by id with a
// set index for scans. SaveAll batches every write into one transactional
// pipeline, which is what makes publish's status flips atomic to readers.
type RedisRepository struct {
	redis  *redis.Client
	tracer trace.Tracer
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository builds a Redis-backed prompt repository.
func NewRedisRepository(redisClient *redis.Client) *RedisRepository {
	if redisClient == nil {
		panic("prompt: redis client cannot be nil")
	}
	return &RedisRepository{
		redis:  redisClient,
		tracer: otel.Tracer("aira.internal.prompt.redis"),
	}
}

// Save writes one prompt document.
func (r *RedisRepository) Save(ctx context.Context, p *Prompt) error {
	return r.SaveAll(ctx, []*Prompt{p})
}

// SaveAll writes the batch in one MULTI/EXEC transaction.
func (r *RedisRepository) SaveAll(ctx context.Context, prompts []*Prompt) error {
	ctx, span := r.tracer.Start(ctx, "prompt.redis.save")
	defer span.End()

	pipe := r.redis.TxPipeline()
	for _, p := range prompts {
		if p == nil || p.ID == "" {
			return errors.New("prompt: cannot save prompt without id")
		}
		data, err := json.Marshal(p)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("prompt: marshal prompt %s: %w", p.ID, err)
		}
		pipe.Set(ctx, promptKey(p.ID), data, 0)
		pipe.SAdd(ctx, promptIndexKey, p.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("prompt: persist batch: %w", err)
	}
	return nil
}

// Get loads one prompt document.
func (r *RedisRepository) Get(ctx context.Context, id string) (*Prompt, error) {
	ctx, span := r.tracer.Start(ctx, "prompt.redis.get")
	defer span.End()

	data, err := r.redis.Get(ctx, promptKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("prompt: load prompt %s: %w", id, err)
	}

	var p Prompt
	if err := json.Unmarshal(data, &p); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("prompt: decode prompt %s: %w", id, err)
	}
	return &p, nil
}

// List scans the index and returns matching prompts in lineage order.
func (r *RedisRepository) List(ctx context.Context, f Filter) ([]*Prompt, error) {
	ctx, span := r.tracer.Start(ctx, "prompt.redis.list")
	defer span.End()

	ids, err := r.redis.SMembers(ctx, promptIndexKey).Result()
	if err != nil {
		if err == redis.Nil {
			return []*Prompt{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("prompt: scan index: %w", err)
	}
	if len(ids) == 0 {
		return []*Prompt{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = promptKey(id)
	}
	raw, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("prompt: fetch prompts: %w", err)
	}

	out := make([]*Prompt, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			continue
		}
		var p Prompt
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			span.RecordError(err)
			continue
		}
		if f.Matches(&p) {
			out = append(out, &p)
		}
	}
	sortLineageOrder(out)
	return out, nil
}

func promptKey(id string) string {
	return promptKeyPrefix + id
}
