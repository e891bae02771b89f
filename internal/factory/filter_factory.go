package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/adapters/filter"
	"github.com/mikey/llm-inbox-digest/internal/config"
	"github.com/mikey/llm-inbox-digest/internal/core"
)

// FilterFactory creates email filter front-ends
type FilterFactory struct {
	cfg          *config.Config
	logger       *zap.Logger
	service      *core.ClassifierService
	cacheFactory *CacheFactory
	cache        core.CacheRepository
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ClassifierService,
	cacheFactory *CacheFactory,
	cache core.CacheRepository,
) *FilterFactory {
	return &FilterFactory{
		cfg:          cfg,
		logger:       logger,
		service:      service,
		cacheFactory: cacheFactory,
		cache:        cache,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (filter.EmailFilter, error) {
	classifierCfg := f.cfg.GetClassifier()

	switch f.cfg.GetString("server.filter_type") {
	case "smtp":
		headers := filter.TaggingHeaders{
			Category:   f.cfg.GetString("server.headers.category"),
			Importance: f.cfg.GetString("server.headers.importance"),
			Attention:  f.cfg.GetString("server.headers.attention"),
			Decider:    f.cfg.GetString("server.headers.decider"),
			Reason:     f.cfg.GetString("server.headers.reason"),
		}
		var cache core.CacheRepository
		if f.cacheFactory.IsCacheEnabled() {
			cache = f.cache
		}
		triageTTL, err := f.cacheFactory.GetTriageTTL()
		if err != nil {
			return nil, fmt.Errorf("invalid triage TTL: %w", err)
		}
		parsedTTL, err := f.cacheFactory.GetParsedTTL()
		if err != nil {
			return nil, fmt.Errorf("invalid parsed TTL: %w", err)
		}
		return filter.NewTaggingFilter(
			f.service,
			cache,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			headers,
			f.cfg.GetString("server.relay_address"),
			f.cfg.GetInt("server.relay_port"),
			f.cfg.GetBool("server.relay_enabled"),
			f.cfg.GetString("server.subject_prefix"),
			f.cfg.GetBool("server.modify_subject"),
			classifierCfg.UseRules,
			classifierCfg.UseAI,
			triageTTL,
			parsedTTL,
		), nil
	case "cli":
		return filter.NewCliFilter(f.service, f.logger, false, classifierCfg.UseRules, classifierCfg.UseAI)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", f.cfg.GetString("server.filter_type"))
	}
}
