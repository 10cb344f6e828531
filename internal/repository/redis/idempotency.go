package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
	"github.com/utafrali/catalog-review/pkg/kafka"
)

const (
	responsePrefix = "catalog:idem:response:"
	eventPrefix    = "catalog:idem:event:"
)

// IdempotencyRepository implements repository.IdempotencyRepository using Redis.
type IdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyRepository creates a Redis-backed response store. Entries
// expire after ttl.
func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) *IdempotencyRepository {
	return &IdempotencyRepository{client: client, ttl: ttl}
}

// Get retrieves the response stored under key.
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*domain.StoredResponse, error) {
	data, err := r.client.Get(ctx, responsePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("idempotency key", key)
		}
		return nil, fmt.Errorf("redis get idempotent response: %w", err)
	}

	var resp domain.StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal idempotent response: %w", err)
	}
	return &resp, nil
}

// Save stores resp with SET NX so the first writer wins.
func (r *IdempotencyRepository) Save(ctx context.Context, key string, resp *domain.StoredResponse) (bool, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return false, fmt.Errorf("marshal idempotent response: %w", err)
	}

	ok, err := r.client.SetNX(ctx, responsePrefix+key, data, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx idempotent response: %w", err)
	}
	return ok, nil
}

// ProcessedEvents implements kafka.IdempotencyStore on Redis so that event
// deduplication survives restarts and is shared across replicas.
type ProcessedEvents struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProcessedEvents creates a Redis-backed processed-event set.
func NewProcessedEvents(client *redis.Client, ttl time.Duration) *ProcessedEvents {
	return &ProcessedEvents{client: client, ttl: ttl}
}

func (p *ProcessedEvents) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := p.client.Exists(ctx, eventPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event: %w", err)
	}
	return n > 0, nil
}

func (p *ProcessedEvents) Add(ctx context.Context, eventID string) error {
	if err := p.client.Set(ctx, eventPrefix+eventID, 1, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set event: %w", err)
	}
	return nil
}

var (
	_ repository.IdempotencyRepository = (*IdempotencyRepository)(nil)
	_ kafka.IdempotencyStore           = (*ProcessedEvents)(nil)
)
