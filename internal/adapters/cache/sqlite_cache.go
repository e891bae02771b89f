package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// Like the memory cache it purges expired entries lazily on Get; Cleanup is
// available for a host-scheduled maintenance pass but is never self-invoked.
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS digest_cache (
			cache_key TEXT PRIMARY KEY,
			value BLOB,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_digest_cache_expires_at ON digest_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteCache{db: db, logger: logger}, nil
}

// Get retrieves the value for key, deleting and skipping expired entries
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var expiresAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM digest_cache WHERE cache_key = ?
	`, key).Scan(&value, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || time.Now().After(expiry) {
		if _, delErr := c.db.ExecContext(ctx, `DELETE FROM digest_cache WHERE cache_key = ?`, key); delErr != nil {
			c.logger.Error("Failed to delete expired entry", zap.Error(delErr), zap.String("key", key))
		}
		return nil, false
	}

	return value, true
}

// Put stores value under key with the given TTL
func (c *SQLiteCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl).Format(time.RFC3339)

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO digest_cache (cache_key, value, expires_at)
		VALUES (?, ?, ?)
	`, key, value, expiresAt)
	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("key", key))
	}
}

// Invalidate removes the entry for key
func (c *SQLiteCache) Invalidate(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM digest_cache WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry
func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM digest_cache`)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Cleanup removes expired entries; intended for a host-scheduled
// maintenance pass
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM digest_cache WHERE expires_at <= ?
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rows))
	}
	return nil
}

// Close closes the database connection
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
