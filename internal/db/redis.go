package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/augisz/interview-trainer/internal/api"
	"github.com/augisz/interview-trainer/internal/domain"
	"github.com/augisz/interview-trainer/internal/secure"
	"github.com/redis/go-redis/v9"
)

// RedisStore stores transcripts and evaluations in Redis, encrypted at rest.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	crypter *secure.Crypter
}

// NewRedisStore creates a store with connection pooling.
func NewRedisStore(connStr string, encryptionKey string) (*RedisStore, error) {
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	goapp.Log.Info().Str("redis", opt.Addr).Int("db", opt.DB).Send()
	rdb := redis.NewClient(opt)

	crypter, err := secure.NewCrypter(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("create crypter: %w", err)
	}

	return &RedisStore{
		client:  rdb,
		ttl:     time.Hour * 6,
		crypter: crypter,
	}, nil
}

func (r *RedisStore) keyTranscript(id string) string {
	return fmt.Sprintf("transcript:%s", id)
}

func (r *RedisStore) keyEvaluation(id string) string {
	return fmt.Sprintf("evaluation:%s", id)
}

func (r *RedisStore) SaveTranscript(ctx context.Context, tr *domain.Transcript) error {
	goapp.Log.Trace().Str("id", tr.ID).Msg("Save transcript")
	return r.set(ctx, r.keyTranscript(tr.ID), tr)
}

func (r *RedisStore) GetTranscript(ctx context.Context, id string) (*domain.Transcript, error) {
	goapp.Log.Trace().Str("id", id).Msg("Get transcript")
	res := &domain.Transcript{}
	if err := r.get(ctx, r.keyTranscript(id), res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *RedisStore) SaveEvaluation(ctx context.Context, id string, ev *api.Evaluation) error {
	goapp.Log.Trace().Str("id", id).Msg("Save evaluation")
	return r.set(ctx, r.keyEvaluation(id), ev)
}

func (r *RedisStore) GetEvaluation(ctx context.Context, id string) (*api.Evaluation, error) {
	goapp.Log.Trace().Str("id", id).Msg("Get evaluation")
	res := &api.Evaluation{}
	if err := r.get(ctx, r.keyEvaluation(id), res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *RedisStore) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	encrypted, err := r.crypter.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return r.client.Set(ctx, key, encrypted, r.ttl).Err()
}

func (r *RedisStore) get(ctx context.Context, key string, v interface{}) error {
	bs, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	decrypted, err := r.crypter.Decrypt(bs)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}
	return json.Unmarshal(decrypted, v)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
