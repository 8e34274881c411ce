package lock

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("lock")

// release and extend are check-and-act on the owner token so a slow holder
// cannot touch a lock that expired and was reacquired by someone else
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

type service struct {
	rdb        *redis.Client
	prefix     string
	retries    int
	retryDelay time.Duration
	defaultTTL time.Duration
}

func NewService(rdb *redis.Client, config core.Config) core.LockService {
	return &service{
		rdb:        rdb,
		prefix:     config.CachePrefix + core.LockNamespace,
		retries:    config.Lock.Retries,
		retryDelay: time.Duration(config.Lock.RetryDelay) * time.Millisecond,
		defaultTTL: time.Duration(config.Lock.TTL) * time.Millisecond,
	}
}

// Acquire attempts a conditional set with expiry, retrying with a fixed
// delay. The returned token identifies the holder.
func (s *service) Acquire(ctx context.Context, resource string, ttl time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "Lock.Service.Acquire")
	defer span.End()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	token := xid.New().String()
	key := s.prefix + resource

	for attempt := 0; attempt < s.retries; attempt++ {
		ok, err := s.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			span.RecordError(err)
			return "", errors.Wrap(err, "failed to acquire lock")
		}
		if ok {
			return token, nil
		}

		if attempt < s.retries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	return "", core.NewErrorLockNotAcquired()
}

// Release returns false when the token does not own the lock
func (s *service) Release(ctx context.Context, resource, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Lock.Service.Release")
	defer span.End()

	n, err := releaseScript.Run(ctx, s.rdb, []string{s.prefix + resource}, token).Int()
	if err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "failed to release lock")
	}

	return n == 1, nil
}

// Extend refreshes the expiry while the token still owns the lock
func (s *service) Extend(ctx context.Context, resource, token string, ttl time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "Lock.Service.Extend")
	defer span.End()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	n, err := extendScript.Run(ctx, s.rdb, []string{s.prefix + resource}, token, ttl.Milliseconds()).Int()
	if err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "failed to extend lock")
	}

	return n == 1, nil
}
