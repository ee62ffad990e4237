package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fretline/fretline/pkg/errors"
)

const redisKeyPrefix = "fretline:job:"

// RedisStore is a redis-backed job store for multi-instance API
// deployments. Jobs expire after the retention window; redis handles
// eviction, so Cleanup is a no-op.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// RedisConfig configures the redis connection.
type RedisConfig struct {
	Addr     string // host:port, e.g. "localhost:6379"
	Password string
	DB       int
}

// NewRedisStore connects to redis and verifies the connection with a ping.
// A zero retention uses DefaultRetention.
func NewRedisStore(ctx context.Context, cfg RedisConfig, retention time.Duration) (*RedisStore, error) {
	if retention == 0 {
		retention = DefaultRetention
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, retention: retention}, nil
}

func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal job %s", job.ID)
	}
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+job.ID, data, s.retention).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store job %s", job.ID)
	}
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "job %s already exists", job.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load job %s", id)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse job %s", id)
	}
	return &job, nil
}

func (s *RedisStore) Update(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal job %s", job.ID)
	}
	ok, err := s.client.SetXX(ctx, redisKeyPrefix+job.ID, data, s.retention).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store job %s", job.ID)
	}
	if !ok {
		return errors.New(errors.ErrCodeJobNotFound, "job %s not found", job.ID)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete job %s", id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Job, error) {
	var jobs []*Job
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load job %s", iter.Val())
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "scan jobs")
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
