package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokeStatusNotFound    int64 = 0
	revokeStatusRevoked     int64 = 1
	revokeStatusAlready     int64 = 2
	revokeStatusInvalidBlob int64 = 3
)

// The revoked flag sits at 1-based offset 52+userLen+nameLen and is followed by the
// 8-byte revokedAt; ARGV[1] carries those 9 bytes. The key keeps its remaining PTTL.
const revokeSessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local version = string.byte(data, 1)
local user_len = string.byte(data, 2)
if version ~= 1 or not user_len then
  return 3
end
local name_len = string.byte(data, 3 + user_len)
if not name_len or #data ~= 60 + user_len + name_len then
  return 3
end

local flag_offset = 52 + user_len + name_len
if string.byte(data, flag_offset) == 1 then
  return 2
end

local updated = string.sub(data, 1, flag_offset - 1) .. ARGV[1]
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
  redis.call("SET", KEYS[1], updated, "PX", ttl)
elseif ttl == -1 then
  redis.call("SET", KEYS[1], updated)
else
  return 0
end
return 1
`

var revokeSessionLua = redis.NewScript(revokeSessionScript)

const sweepScanCount = 500

// RedisBackend stores records as binary blobs under "<prefix>:<sessionID>".
// Keys expire on their own RevokedRetention after the session does; sweeping only
// matters when the injected clock runs ahead of the Redis server.
type RedisBackend struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisBackend returns a backend over client. An empty prefix selects "as" and a
// non-positive retention selects DefaultRevokedRetention.
func NewRedisBackend(client redis.UniversalClient, prefix string, retention time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "as"
	}
	if retention <= 0 {
		retention = DefaultRevokedRetention
	}
	return &RedisBackend{redis: client, prefix: prefix, retention: retention}
}

func (b *RedisBackend) key(sessionID string) string {
	return b.prefix + ":" + sessionID
}

// Insert writes rec with SET NX. The key TTL is the session lifetime plus retention.
func (b *RedisBackend) Insert(ctx context.Context, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(rec.IssuedAt) + b.retention
	ok, err := b.redis.SetNX(ctx, b.key(rec.SessionID), data, ttl).Result()
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get reads and decodes one record.
func (b *RedisBackend) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := b.redis.Get(ctx, b.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, unavailable(err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	rec.SessionID = sessionID
	return rec, nil
}

// Revoke runs the compare-and-patch script. It is a single EVALSHA, so a timed out call
// either fully applied or did nothing.
func (b *RedisBackend) Revoke(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	status, err := revokeSessionLua.Run(
		ctx,
		b.redis,
		[]string{b.key(sessionID)},
		revocationPatch(true, at),
	).Int64()
	if err != nil {
		return false, unavailable(err)
	}

	switch status {
	case revokeStatusRevoked:
		return true, nil
	case revokeStatusAlready:
		return false, nil
	case revokeStatusNotFound:
		return false, ErrSessionNotFound
	case revokeStatusInvalidBlob:
		return false, ErrRecordCorrupt
	default:
		return false, fmt.Errorf("%w: unknown revoke script status %d", ErrStoreUnavailable, status)
	}
}

// DeleteExpired scans the prefix and deletes every record that expired before cutoff.
// Undecodable blobs are left in place.
func (b *RedisBackend) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := b.prefix + ":*"

	for {
		keys, next, err := b.redis.Scan(ctx, cursor, pattern, sweepScanCount).Result()
		if err != nil {
			return deleted, unavailable(err)
		}

		if len(keys) > 0 {
			n, err := b.deleteExpiredKeys(ctx, keys, cutoff)
			deleted += n
			if err != nil {
				return deleted, err
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

func (b *RedisBackend) deleteExpiredKeys(ctx context.Context, keys []string, cutoff time.Time) (int, error) {
	pipe := b.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, unavailable(err)
	}

	stale := make([]string, 0, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}
		rec, err := Decode(data)
		if err != nil {
			continue
		}
		if rec.ExpiresAt.Before(cutoff) {
			stale = append(stale, keys[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := b.redis.Del(ctx, stale...).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return int(n), nil
}

// Ping checks the Redis connection.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
