package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/engine"
)

// RedisProvider implements the Provider interface on redis.
type RedisProvider struct {
	client *redis.Client
	store  *RedisExecutionStore
}

// NewRedisProvider creates a redis-backed storage provider
func NewRedisProvider(cfg config.RedisConfig) *RedisProvider {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisProvider{
		client: client,
		store:  &RedisExecutionStore{client: client},
	}
}

// Initialize verifies connectivity
func (p *RedisProvider) Initialize() error {
	if err := p.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// Close cleans up resources
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// ExecutionStore returns the store for execution data
func (p *RedisProvider) ExecutionStore() ExecutionStore {
	return p.store
}

// RedisExecutionStore keeps execution status as JSON strings and logs as
// lists, indexed by a sorted set on start time.
type RedisExecutionStore struct {
	client *redis.Client
}

func executionKey(id string) string { return "execution:" + id }
func logsKey(id string) string      { return "execution:" + id + ":logs" }

const executionIndexKey = "executions"

// SaveExecution persists execution status, replacing any prior state
func (s *RedisExecutionStore) SaveExecution(status engine.ExecutionStatus) error {
	ctx := context.Background()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, executionKey(status.ID), data, 0)
	pipe.ZAdd(ctx, executionIndexKey, &redis.Z{
		Score:  float64(status.StartTime.UnixNano()),
		Member: status.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// GetExecution retrieves execution status
func (s *RedisExecutionStore) GetExecution(executionID string) (engine.ExecutionStatus, error) {
	ctx := context.Background()

	data, err := s.client.Get(ctx, executionKey(executionID)).Bytes()
	if err == redis.Nil {
		return engine.ExecutionStatus{}, ErrExecutionNotFound
	}
	if err != nil {
		return engine.ExecutionStatus{}, fmt.Errorf("failed to get execution: %w", err)
	}

	var status engine.ExecutionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return engine.ExecutionStatus{}, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return status, nil
}

// ListExecutions returns all stored executions, newest first
func (s *RedisExecutionStore) ListExecutions() ([]engine.ExecutionStatus, error) {
	ctx := context.Background()

	ids, err := s.client.ZRevRange(ctx, executionIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	out := make([]engine.ExecutionStatus, 0, len(ids))
	for _, id := range ids {
		status, err := s.GetExecution(id)
		if err == ErrExecutionNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}

// SaveLog appends an execution log entry
func (s *RedisExecutionStore) SaveLog(executionID string, entry engine.LogEntry) error {
	ctx := context.Background()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	if err := s.client.RPush(ctx, logsKey(executionID), data).Err(); err != nil {
		return fmt.Errorf("failed to save log entry: %w", err)
	}
	return nil
}

// GetLogs retrieves the log entries for an execution, in append order
func (s *RedisExecutionStore) GetLogs(executionID string) ([]engine.LogEntry, error) {
	ctx := context.Background()

	raw, err := s.client.LRange(ctx, logsKey(executionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}

	entries := make([]engine.LogEntry, 0, len(raw))
	for _, item := range raw {
		var entry engine.LogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
