package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter decides whether another request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fixed adapts a ulule fixed-window limiter.
type Fixed struct {
	l *limiter.Limiter
}

// NewRedis builds a limiter for a formatted rate such as "20-M" backed by
// Redis so limits hold across API replicas.
func NewRedis(client *redis.Client, formatted, prefix string) (*Fixed, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return &Fixed{l: limiter.New(store, rate)}, nil
}

// NewMemory builds a process-local limiter.
func NewMemory(formatted string) (*Fixed, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return &Fixed{l: limiter.New(memory.NewStore(), rate)}, nil
}

// Allow implements Limiter.
func (f *Fixed) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := f.l.Get(ctx, key)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
