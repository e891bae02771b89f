package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
// with the same lazy-expiry contract as the other backends
type MySQLCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS digest_cache (
			cache_key VARCHAR(128) PRIMARY KEY,
			value BLOB,
			expires_at TIMESTAMP,
			INDEX idx_digest_cache_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLCache{db: db, logger: logger}, nil
}

// Get retrieves the value for key, deleting and skipping expired entries
func (c *MySQLCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM digest_cache WHERE cache_key = ?
	`, key).Scan(&value, &expiresAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	if time.Now().After(expiresAt) {
		if _, delErr := c.db.ExecContext(ctx, `DELETE FROM digest_cache WHERE cache_key = ?`, key); delErr != nil {
			c.logger.Error("Failed to delete expired entry", zap.Error(delErr), zap.String("key", key))
		}
		return nil, false
	}

	return value, true
}

// Put stores value under key with the given TTL
func (c *MySQLCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO digest_cache (cache_key, value, expires_at) VALUES (?, ?, ?)
	`, key, value, time.Now().Add(ttl))
	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("key", key))
	}
}

// Invalidate removes the entry for key
func (c *MySQLCache) Invalidate(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM digest_cache WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry
func (c *MySQLCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM digest_cache`)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Cleanup removes expired entries; intended for a host-scheduled
// maintenance pass
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM digest_cache WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rows))
	}
	return nil
}

// Close closes the database connection
func (c *MySQLCache) Close() error {
	return c.db.Close()
}
