package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/tcmartin/flowgraph/pkg/config"
	"github.com/tcmartin/flowgraph/pkg/engine"
)

// PostgresProvider implements the Provider interface on PostgreSQL.
type PostgresProvider struct {
	db    *sql.DB
	cfg   config.PostgresConfig
	store *PostgresExecutionStore
}

// NewPostgresProvider creates a PostgreSQL-backed storage provider
func NewPostgresProvider(cfg config.PostgresConfig) *PostgresProvider {
	return &PostgresProvider{cfg: cfg}
}

// Initialize connects and creates the schema if needed
func (p *PostgresProvider) Initialize() error {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.cfg.Host, p.cfg.Port, p.cfg.Database, p.cfg.User, p.cfg.Password, p.cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			start_time TIMESTAMPTZ NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS execution_logs (
			id BIGSERIAL PRIMARY KEY,
			execution_id TEXT NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS execution_logs_execution_id_idx
			ON execution_logs (execution_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	p.db = db
	p.store = &PostgresExecutionStore{db: db}
	return nil
}

// Close cleans up resources
func (p *PostgresProvider) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// ExecutionStore returns the store for execution data
func (p *PostgresProvider) ExecutionStore() ExecutionStore {
	return p.store
}

// PostgresExecutionStore persists executions and logs as JSONB rows.
type PostgresExecutionStore struct {
	db *sql.DB
}

// SaveExecution persists execution status, replacing any prior state
func (s *PostgresExecutionStore) SaveExecution(status engine.ExecutionStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO executions (id, start_time, data) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET start_time = $2, data = $3`,
		status.ID, status.StartTime, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// GetExecution retrieves execution status
func (s *PostgresExecutionStore) GetExecution(executionID string) (engine.ExecutionStatus, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM executions WHERE id = $1`, executionID).Scan(&data)
	if err == sql.ErrNoRows {
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
func (s *PostgresExecutionStore) ListExecutions() ([]engine.ExecutionStatus, error) {
	rows, err := s.db.Query(`SELECT data FROM executions ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var out []engine.ExecutionStatus
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		var status engine.ExecutionStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}
		out = append(out, status)
	}
	return out, rows.Err()
}

// SaveLog appends an execution log entry
func (s *PostgresExecutionStore) SaveLog(executionID string, entry engine.LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO execution_logs (execution_id, data) VALUES ($1, $2)`,
		executionID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save log entry: %w", err)
	}
	return nil
}

// GetLogs retrieves the log entries for an execution, in append order
func (s *PostgresExecutionStore) GetLogs(executionID string) ([]engine.LogEntry, error) {
	rows, err := s.db.Query(
		`SELECT data FROM execution_logs WHERE execution_id = $1 ORDER BY id`,
		executionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var entries []engine.LogEntry
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		var entry engine.LogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
