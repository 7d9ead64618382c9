// Package redisrepo stores session records in Redis as JSON, one key per table and username.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries when a watched key changes mid-update.
const maxUpdateAttempts = 3

var _ sessions.Repo = (*Store)(nil)

type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

func New(client redis.UniversalClient, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) key(table, username string) string {
	return s.keyPrefix + table + ":" + username
}

func (s *Store) Get(ctx context.Context, table, username string) (*sessions.Record, error) {
	data, err := s.client.Get(ctx, s.key(table, username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sessions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", table, err)
	}
	return decode(data)
}

func (s *Store) Put(ctx context.Context, table string, record *sessions.Record) error {
	data, err := json.Marshal(record.ToStored())
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(table, record.Username), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", table, err)
	}
	return nil
}

// Update reads, applies and writes the record inside a WATCH so a concurrent delete
// (idle eviction) is not resurrected.
func (s *Store) Update(ctx context.Context, table, username string, update sessions.Update) error {
	key := s.key(table, username)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sessions.ErrNotFound
		}
		if err != nil {
			return err
		}
		record, err := decode(data)
		if err != nil {
			return err
		}
		record.Apply(update)
		out, err := json.Marshal(record.ToStored())
		if err != nil {
			return fmt.Errorf("failed to encode session record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil && !errors.Is(err, sessions.ErrNotFound) {
		return fmt.Errorf("redis update %s: %w", table, err)
	}
	return err
}

func (s *Store) Delete(ctx context.Context, table, username string) error {
	if err := s.client.Del(ctx, s.key(table, username)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", table, err)
	}
	return nil
}

func decode(data []byte) (*sessions.Record, error) {
	var stored sessions.StoredRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return stored.Record(), nil
}
