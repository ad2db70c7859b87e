package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/redis/go-redis/v9"
)

// SessionTokenRepository is the revocation registry: the set of token ids
// that are currently live for each subject. A token id absent from the
// registry is revoked, whatever its signature says.
type SessionTokenRepository interface {
	Register(ctx context.Context, subject, tokenID string, lifetime time.Duration) error
	RevokeOne(ctx context.Context, subject, tokenID string) error
	RevokeAll(ctx context.Context, subject string) error
	IsValid(ctx context.Context, subject, tokenID string) (bool, error)
	Ping(ctx context.Context) error
}

// Each subject owns one sorted set. Members are token ids scored by their
// expiry in unix milliseconds. The key itself carries a TTL equal to the
// lifetime of its newest member, so idle subjects disappear without a sweeper.
type redisSessionTokenRepo struct {
	client redis.UniversalClient
	clock  utils.Clock
}

func NewSessionTokenRepository(client redis.UniversalClient, clock utils.Clock) SessionTokenRepository {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &redisSessionTokenRepo{client: client, clock: clock}
}

func sessionTokensKey(subject string) string {
	return "user:" + subject + ":tokens"
}

// Register stores tokenID as live for lifetime. Entries already past their
// expiry are pruned in the same transaction. The key TTL is reset to
// lifetime; every caller uses the configured token lifetime, so the newest
// member always has the latest expiry.
func (r *redisSessionTokenRepo) Register(ctx context.Context, subject, tokenID string, lifetime time.Duration) error {
	if lifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}

	key := sessionTokensKey(subject)
	now := r.clock.Now()
	expiresAt := now.Add(lifetime)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.UnixMilli(), 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(expiresAt.UnixMilli()), Member: tokenID})
		pipe.PExpire(ctx, key, lifetime)
		return nil
	})
	if err != nil {
		return registryError("register", err)
	}
	return nil
}

func (r *redisSessionTokenRepo) RevokeOne(ctx context.Context, subject, tokenID string) error {
	if err := r.client.ZRem(ctx, sessionTokensKey(subject), tokenID).Err(); err != nil {
		return registryError("revoke one", err)
	}
	return nil
}

func (r *redisSessionTokenRepo) RevokeAll(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, sessionTokensKey(subject)).Err(); err != nil {
		return registryError("revoke all", err)
	}
	return nil
}

// IsValid is true only while tokenID is a member and its own expiry has not
// passed. Any transport failure is returned as an error, never as false.
func (r *redisSessionTokenRepo) IsValid(ctx context.Context, subject, tokenID string) (bool, error) {
	score, err := r.client.ZScore(ctx, sessionTokensKey(subject), tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, registryError("lookup", err)
	}
	return r.clock.Now().UnixMilli() < int64(score), nil
}

func (r *redisSessionTokenRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return registryError("ping", err)
	}
	return nil
}

func registryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", utils.ErrRegistryUnavailable, op, err)
}
