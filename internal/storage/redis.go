package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/tos-network/emission-sim/internal/util"
)

const (
	keyPrefix = "emsim:"

	// Key patterns
	keyRuns = keyPrefix + "runs"    // sorted set of run IDs by completion time
	keyRun  = keyPrefix + "run:%s"  // JSON record per run
)

// RedisClient stores run records
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client
func NewRedisClient(url, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	util.Info("Connected to Redis at ", url)
	return &RedisClient{client: client, ctx: ctx}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// SaveRun stores a completed run record. Re-running an identical
// scenario overwrites the previous record: the run ID is derived from
// the scenario, so the newer record describes the same estimate.
func (r *RedisClient) SaveRun(rec *RunRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(r.ctx, fmt.Sprintf(keyRun, rec.RunID), payload, 0)
	pipe.ZAdd(r.ctx, keyRuns, &redis.Z{
		Score:  float64(rec.CompletedAt),
		Member: rec.RunID,
	})
	_, err = pipe.Exec(r.ctx)
	return err
}

// GetRun fetches one run record by ID. A missing run returns redis.Nil.
func (r *RedisClient) GetRun(runID string) (*RunRecord, error) {
	payload, err := r.client.Get(r.ctx, fmt.Sprintf(keyRun, runID)).Result()
	if err != nil {
		return nil, err
	}

	var rec RunRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("corrupt run record %s: %w", runID, err)
	}
	return &rec, nil
}

// ListRuns returns the most recently completed runs, newest first.
func (r *RedisClient) ListRuns(limit int64) ([]*RunRecord, error) {
	ids, err := r.client.ZRevRange(r.ctx, keyRuns, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	runs := make([]*RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.GetRun(id)
		if err != nil {
			// Index entries can outlive their records; skip them.
			continue
		}
		runs = append(runs, rec)
	}
	return runs, nil
}

// DeleteRun removes a run record and its index entry.
func (r *RedisClient) DeleteRun(runID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(r.ctx, fmt.Sprintf(keyRun, runID))
	pipe.ZRem(r.ctx, keyRuns, runID)
	_, err := pipe.Exec(r.ctx)
	return err
}
