package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("ratelimit")

type service struct {
	rdb      *redis.Client
	prefix   string
	requests int
	window   time.Duration
}

func NewService(rdb *redis.Client, config core.Config) core.RateLimitService {
	return &service{
		rdb:      rdb,
		prefix:   config.CachePrefix + core.RateNamespace,
		requests: config.RateLimit.Requests,
		window:   time.Duration(config.RateLimit.Window) * time.Second,
	}
}

// IsAllowed records the call and decides against the sliding window. When
// the store is unreachable the limiter fails open rather than blocking
// traffic on an infrastructure outage.
func (s *service) IsAllowed(ctx context.Context, identifier string) (bool, error) {
	ctx, span := tracer.Start(ctx, "RateLimit.Service.IsAllowed")
	defer span.End()

	key := s.prefix + identifier
	now := time.Now()
	windowStart := now.Add(-s.window)

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: xid.New().String(),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, s.window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("rate limiter store unreachable, failing open",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()),
		)
		return true, nil
	}

	return count.Val() <= int64(s.requests), nil
}

func (s *service) Remaining(ctx context.Context, identifier string) (int, error) {
	ctx, span := tracer.Start(ctx, "RateLimit.Service.Remaining")
	defer span.End()

	key := s.prefix + identifier
	windowStart := time.Now().Add(-s.window)

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	count := pipe.ZCard(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, "failed to count rate limit entries")
	}

	remaining := s.requests - int(count.Val())
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (s *service) Reset(ctx context.Context, identifier string) error {
	ctx, span := tracer.Start(ctx, "RateLimit.Service.Reset")
	defer span.End()

	err := s.rdb.Del(ctx, s.prefix+identifier).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to reset rate limit")
	}

	return nil
}
