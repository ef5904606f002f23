package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/open-teleop/robotbridge/pkg/robot"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// Writes come from the snapshot sink and the command recorder.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, snapshot robot.SensorSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, tick, timestamp_ns, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, tick) DO UPDATE SET
			timestamp_ns = excluded.timestamp_ns,
			payload = excluded.payload
	`, runID, int64(snapshot.Tick), snapshot.Timestamp.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) SaveCommand(ctx context.Context, runID string, applied robot.AppliedCommand) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(applied)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO commands (run_id, applied_at_ns, payload)
		VALUES (?, ?, ?)
	`, runID, applied.AppliedAt.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, runID string, limit int) ([]robot.SensorSnapshot, error) {
	payloads, err := s.list(ctx, `
		SELECT payload FROM (
			SELECT tick, payload FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT ?
		) ORDER BY tick ASC
	`, runID, limit)
	if err != nil {
		return nil, err
	}

	snapshots := make([]robot.SensorSnapshot, 0, len(payloads))
	for _, p := range payloads {
		var snapshot robot.SensorSnapshot
		if err := json.Unmarshal(p, &snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s *SQLiteStore) ListCommands(ctx context.Context, runID string, limit int) ([]robot.AppliedCommand, error) {
	payloads, err := s.list(ctx, `
		SELECT payload FROM (
			SELECT seq, payload FROM commands WHERE run_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, runID, limit)
	if err != nil {
		return nil, err
	}

	commands := make([]robot.AppliedCommand, 0, len(payloads))
	for _, p := range payloads {
		var applied robot.AppliedCommand
		if err := json.Unmarshal(p, &applied); err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		commands = append(commands, applied)
	}
	return commands, nil
}

func (s *SQLiteStore) list(ctx context.Context, query, runID string, limit int) ([][]byte, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, query, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			timestamp_ns INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, tick)
		)`,
		`CREATE TABLE IF NOT EXISTS commands (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			applied_at_ns INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS commands_run ON commands (run_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
