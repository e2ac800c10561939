package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// issueScript keeps an existing value or stores ARGV[1]; both paths reset the TTL.
var issueScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	v = ARGV[1]
else
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return v
`)

// incrementScript sets the TTL only when the window opens, or when a counter lost its TTL.
var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if n == 1 or ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisStore implements Store on Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithPrefix namespaces every key. Stores sharing a client need distinct prefixes.
func WithPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.prefix = prefix
	}
}

// WithRedisClock replaces time.Now when computing expiry timestamps.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(rs *RedisStore) {
		if now != nil {
			rs.now = now
		}
	}
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrStoreUnavailable)
	}
	rs := &RedisStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(rs)
	}
	return rs, nil
}

func (rs *RedisStore) key(k string) string {
	return rs.prefix + k
}

// Get returns the live record for key.
func (rs *RedisStore) Get(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return Record{}, ErrEmptyKey
	}

	var (
		getCmd *redis.StringCmd
		ttlCmd *redis.DurationCmd
	)
	_, err := rs.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		getCmd = p.Get(ctx, rs.key(key))
		ttlCmd = p.PTTL(ctx, rs.key(key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}

	value, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}

	rec := Record{Value: value}
	if ttl := ttlCmd.Val(); ttl > 0 {
		rec.ExpiresAt = rs.now().Add(ttl)
	}
	return rec, nil
}

// Set stores value under key.
func (rs *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validate(key, ttl); err != nil {
		return err
	}
	if err := rs.client.Set(ctx, rs.key(key), value, ttl).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Issue stores value unless a live record exists and refreshes the expiry.
func (rs *RedisStore) Issue(ctx context.Context, key, value string, ttl time.Duration) (Record, error) {
	if err := validate(key, ttl); err != nil {
		return Record{}, err
	}

	stored, err := issueScript.Run(ctx, rs.client, []string{rs.key(key)}, value, ttl.Milliseconds()).Text()
	if err != nil {
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}
	return Record{Value: stored, ExpiresAt: rs.now().Add(ttl)}, nil
}

// Increment bumps the counter under key within a fixed window of length ttl.
func (rs *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	if err := validate(key, ttl); err != nil {
		return 0, time.Time{}, err
	}

	res, err := incrementScript.Run(ctx, rs.client, []string{rs.key(key)}, ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected increment reply %v", ErrStoreUnavailable, res)
	}
	return res[0], rs.now().Add(time.Duration(res[1]) * time.Millisecond), nil
}

// Delete removes key.
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key(key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck pings the server.
func (rs *RedisStore) Healthcheck(ctx context.Context) error {
	if err := rs.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
