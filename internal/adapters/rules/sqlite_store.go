package rules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

// SQLiteStore persists learned classification rules in SQLite so
// corrections survive restarts
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite rule store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS learned_rules (
			signature TEXT PRIMARY KEY,
			domain TEXT,
			subject_key TEXT,
			category TEXT,
			importance TEXT,
			attention TEXT,
			confidence REAL,
			hits INTEGER,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load returns all persisted rules
func (s *SQLiteStore) Load(ctx context.Context) ([]*core.LearnedRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signature, domain, subject_key, category, importance, attention, confidence, hits, updated_at
		FROM learned_rules
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []*core.LearnedRule
	for rows.Next() {
		var r core.LearnedRule
		var updatedAt string
		if err := rows.Scan(&r.Signature, &r.Domain, &r.SubjectKey,
			&r.Category, &r.Importance, &r.Attention,
			&r.Confidence, &r.Hits, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			r.UpdatedAt = ts
		}
		rules = append(rules, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return rules, nil
}

// Save upserts a rule by its signature
func (s *SQLiteStore) Save(ctx context.Context, rule *core.LearnedRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO learned_rules
			(signature, domain, subject_key, category, importance, attention, confidence, hits, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.Signature, rule.Domain, rule.SubjectKey,
		string(rule.Category), string(rule.Importance), string(rule.Attention),
		rule.Confidence, rule.Hits, rule.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
