package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/adapters/filter"
	adapterrules "github.com/mikey/llm-inbox-digest/internal/adapters/rules"
	"github.com/mikey/llm-inbox-digest/internal/config"
	"github.com/mikey/llm-inbox-digest/internal/contacts"
	"github.com/mikey/llm-inbox-digest/internal/core"
	"github.com/mikey/llm-inbox-digest/internal/extract"
	"github.com/mikey/llm-inbox-digest/internal/factory"
	"github.com/mikey/llm-inbox-digest/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register contact checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ContactChecker {
		return contacts.NewChecker(cfg.GetClassifier().Contacts, logger)
	}); err != nil {
		return nil, err
	}

	// Register cascade stages
	if err := container.Provide(func() *core.TypeMapper {
		return core.NewTypeMapper(core.DefaultTypePatterns())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(buildRulesEngine); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewFallbackClassifier); err != nil {
		return nil, err
	}
	if err := container.Provide(buildAIClassifier); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewClassifierService); err != nil {
		return nil, err
	}

	// Register digest pipeline services
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *core.Enricher {
		digestCfg := cfg.GetDigest()
		return core.NewEnricher(digestCfg.TodayHorizon, digestCfg.UpcomingDays, digestCfg.StaleGrace, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewDeduplicator); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) *core.Synthesizer {
		return core.NewSynthesizer(cfg.GetDigest().MaxFeatured)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(extract.NewExtractor); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (filter.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// buildRulesEngine wires the rules engine, with SQLite persistence when
// configured, and preloads any persisted rules
func buildRulesEngine(cfg *config.Config, logger *zap.Logger) (*core.RulesEngine, error) {
	classifierCfg := cfg.GetClassifier()

	var store core.RuleStore
	if classifierCfg.RulesPersist {
		sqliteStore, err := adapterrules.NewSQLiteStore(classifierCfg.RulesPath, logger)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	}

	engine := core.NewRulesEngine(store, logger, classifierCfg.RuleMinConfidence)
	if err := engine.LoadRules(context.Background()); err != nil {
		return nil, err
	}
	return engine, nil
}

// buildAIClassifier wires the AI stage; a disabled AI stage yields a nil
// classifier, which the cascade treats as "skip"
func buildAIClassifier(
	cfg *config.Config,
	logger *zap.Logger,
	llmFactory *factory.LLMFactory,
	cacheFactory *factory.CacheFactory,
	cacheRepo core.CacheRepository,
) (*core.AIClassifier, error) {
	if !cfg.GetClassifier().UseAI {
		return nil, nil
	}

	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := cacheFactory.GetClassificationTTL()
	if err != nil {
		return nil, err
	}

	llmCfg := cfg.GetLLM()
	maxBodySize := cfg.GetInt(llmCfg.Provider + ".max_body_size")

	return core.NewAIClassifier(
		llmClient,
		cacheRepo,
		cacheFactory.IsCacheEnabled(),
		logger,
		llmCfg.Provider,
		cacheTTL,
		llmCfg.Timeout,
		maxBodySize,
	), nil
}
