package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"schemeflow/internal/session/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix = "schemeflow:session:"
	archiveKeyPrefix = "schemeflow:session:archive:"
	// expiryIndexKey is a sorted set of live session IDs scored by ExpiresAt (unix ms).
	expiryIndexKey = "schemeflow:session:expiry"

	defaultArchiveRetention = 30 * 24 * time.Hour
	maxTxRetries            = 5
	sweepBatchSize          = 100
)

// RedisStore keeps sessions as JSON strings shared by every server instance.
// Live keys carry no TTL: expiry is decided by ExpiresAt at read time and the
// sweeper moves closed sessions to archive keys that do expire.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

type RedisOption func(*RedisStore)

// WithArchiveRetention sets how long archived sessions are kept.
func WithArchiveRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, retention: defaultArchiveRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(sessionID id.SessionID) string { return sessionKeyPrefix + sessionID.String() }
func archiveKey(sessionID id.SessionID) string { return archiveKeyPrefix + sessionID.String() }

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	created, err := s.client.SetNX(ctx, sessionKey(session.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return sentinel.ErrAlreadyUsed
	}
	err = s.client.ZAdd(ctx, expiryIndexKey, redis.Z{
		Score:  float64(session.ExpiresAt.UnixMilli()),
		Member: session.ID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("index session expiry: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.get(ctx, s.client, sessionKey(sessionID))
}

func (s *RedisStore) FindArchived(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.get(ctx, s.client, archiveKey(sessionID))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, key string) (*models.Session, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return session.Clone(), nil
}

// Execute runs validate and mutate under WATCH and writes in MULTI/EXEC. A
// concurrent writer aborts the transaction and the whole read-validate-mutate
// cycle is retried; after maxTxRetries the caller gets sentinel.ErrConflict.
func (s *RedisStore) Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	key := sessionKey(sessionID)
	var result *models.Session

	txf := func(tx *redis.Tx) error {
		session, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := validate(session); err != nil {
			return err
		}
		mutate(session)
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = session
		return nil
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, sentinel.ErrConflict
}

// ArchiveExpired moves sessions whose ExpiresAt is before now to archive keys.
// Each move re-reads the session under WATCH so a session is archived once.
func (s *RedisStore) ArchiveExpired(ctx context.Context, now time.Time) (int, error) {
	archived := 0
	for {
		members, err := s.client.ZRangeByScore(ctx, expiryIndexKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   "(" + strconv.FormatInt(now.UnixMilli(), 10),
			Count: sweepBatchSize,
		}).Result()
		if err != nil {
			return archived, fmt.Errorf("scan session expiry index: %w", err)
		}
		if len(members) == 0 {
			return archived, nil
		}
		progressed := false
		for _, member := range members {
			moved, err := s.archiveOne(ctx, member, now)
			if err != nil {
				return archived, err
			}
			if moved {
				archived++
				progressed = true
			}
		}
		// a batch that moved nothing is left for the next sweep
		if len(members) < sweepBatchSize || !progressed {
			return archived, nil
		}
	}
}

func (s *RedisStore) archiveOne(ctx context.Context, member string, now time.Time) (bool, error) {
	sessionID, err := id.ParseSessionID(member)
	if err != nil {
		// not ours; drop it from the index so the sweep terminates
		return false, s.client.ZRem(ctx, expiryIndexKey, member).Err()
	}
	key := sessionKey(sessionID)
	moved := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, expiryIndexKey, member)
				return nil
			})
			return err
		}
		if err != nil {
			return err
		}
		var session models.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if !session.IsExpired(now) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, archiveKey(sessionID), data, s.retention)
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, expiryIndexKey, member)
			return nil
		})
		if err == nil {
			moved = true
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// a concurrent write or sweep touched it; the next sweep retries
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("archive session: %w", err)
	}
	return moved, nil
}
