package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/adapters/cache"
	"github.com/mikey/llm-inbox-digest/internal/config"
	"github.com/mikey/llm-inbox-digest/internal/core"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates a cache repository based on the
// configuration
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cacheType := f.cfg.GetString("cache.type")

	switch cacheType {
	case "memory":
		return cache.NewMemoryCache(f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("cache.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(sqlitePath, f.logger)
	case "mysql":
		mysqlDSN := f.cfg.GetString("cache.mysql_dsn")
		return cache.NewMySQLCache(mysqlDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

// GetClassificationTTL returns the TTL for cached classification results
func (f *CacheFactory) GetClassificationTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.classification_ttl")
}

// GetParsedTTL returns the TTL for cached parsed-email intermediates
func (f *CacheFactory) GetParsedTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.parsed_ttl")
}

// GetTriageTTL returns the shorter TTL used by the triage pipeline stage
func (f *CacheFactory) GetTriageTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.triage_ttl")
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
