package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

const defaultKeyPrefix = "utanotify:delivery"

// RedisStore persists deliveries in Redis so multiple nodes can share a
// retry queue. Each record lives in a JSON string key; a sorted set scored
// by the next-attempt time drives due scans, and a per-message set supports
// message lookups.
type RedisStore struct {
	client         *redis.Client
	prefix         string
	externalClient bool
}

// NewRedisStore creates a store over its own Redis connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client, prefix: defaultKeyPrefix}, nil
}

// NewRedisStoreWithClient creates a store over an existing client. The caller
// keeps ownership of the client lifecycle.
func NewRedisStoreWithClient(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection test failed: %w", err)
	}
	return &RedisStore{client: client, prefix: defaultKeyPrefix, externalClient: true}, nil
}

func (s *RedisStore) recordKey(id string) string     { return s.prefix + ":record:" + id }
func (s *RedisStore) dueKey() string                 { return s.prefix + ":due" }
func (s *RedisStore) messageKey(msgID string) string { return s.prefix + ":message:" + msgID }

// dueScore is the sorted-set score for a delivery: its next-attempt time, or
// its queue time for first attempts.
func dueScore(d *Delivery) float64 {
	if d.NextRetryAt != nil {
		return float64(d.NextRetryAt.Unix())
	}
	return float64(d.QueuedAt.Unix())
}

// Create persists a new delivery.
func (s *RedisStore) Create(ctx context.Context, d *Delivery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to serialize delivery")
	}

	ok, err := s.client.SetNX(ctx, s.recordKey(d.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store delivery: %w", err)
	}
	if !ok {
		return errors.Newf(errors.CodeInternal, "delivery %s already exists", d.ID)
	}

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, s.messageKey(d.MessageID), d.ID)
	if d.Status == StatusQueued {
		pipe.ZAdd(ctx, s.dueKey(), redis.Z{Score: dueScore(d), Member: d.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index delivery: %w", err)
	}
	return nil
}

// Update overwrites an existing delivery and keeps the due index in sync:
// queued records are (re)scored, everything else leaves the index. The write
// runs under WATCH so it is conditional on the stored status; a stale clone
// cannot resurrect a terminal record or steal a claim another node holds.
func (s *RedisStore) Update(ctx context.Context, d *Delivery) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to serialize delivery")
	}
	key := s.recordKey(d.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return errors.Newf(errors.CodeInternal, "delivery %s not found", d.ID)
		}
		if err != nil {
			return fmt.Errorf("check delivery: %w", err)
		}

		var current Delivery
		if err := json.Unmarshal([]byte(stored), &current); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to deserialize delivery")
		}
		if !canOverwrite(current.Status, d.Status) {
			return errors.Newf(errors.CodeInternal,
				"delivery %s is %s, refusing stale %s overwrite", d.ID, current.Status, d.Status)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if d.Status == StatusQueued {
				pipe.ZAdd(ctx, s.dueKey(), redis.Z{Score: dueScore(d), Member: d.ID})
			} else {
				pipe.ZRem(ctx, s.dueKey(), d.ID)
			}
			return nil
		})
		return err
	}, key)

	if err == redis.TxFailedErr {
		return errors.Newf(errors.CodeInternal, "delivery %s was modified concurrently", d.ID)
	}
	return err
}

// Get fetches a delivery by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Delivery, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Result()
	if err == redis.Nil {
		return nil, errors.Newf(errors.CodeInternal, "delivery %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch delivery: %w", err)
	}

	var d Delivery
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to deserialize delivery")
	}
	return &d, nil
}

// ListDue returns queued deliveries whose score is at or before now.
func (s *RedisStore) ListDue(ctx context.Context, now time.Time) ([]*Delivery, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.dueKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan due deliveries: %w", err)
	}

	due := make([]*Delivery, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, id)
		if err != nil {
			// A record can vanish between the scan and the fetch; drop the
			// stale index entry and move on.
			s.client.ZRem(ctx, s.dueKey(), id)
			continue
		}
		if d.Status == StatusQueued {
			due = append(due, d)
		}
	}
	return due, nil
}

// ListByMessage returns all deliveries for a message, oldest first.
func (s *RedisStore) ListByMessage(ctx context.Context, messageID string) ([]*Delivery, error) {
	ids, err := s.client.SMembers(ctx, s.messageKey(messageID)).Result()
	if err != nil {
		return nil, fmt.Errorf("scan message deliveries: %w", err)
	}

	out := make([]*Delivery, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.Before(out[j].QueuedAt) })
	return out, nil
}

// Close releases the Redis connection unless it is externally managed.
func (s *RedisStore) Close() error {
	if s.externalClient {
		return nil
	}
	return s.client.Close()
}
