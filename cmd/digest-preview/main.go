package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/adapters/cache"
	"github.com/mikey/llm-inbox-digest/internal/config"
	"github.com/mikey/llm-inbox-digest/internal/contacts"
	"github.com/mikey/llm-inbox-digest/internal/core"
	"github.com/mikey/llm-inbox-digest/internal/extract"
	"github.com/mikey/llm-inbox-digest/internal/factory"
	"github.com/mikey/llm-inbox-digest/internal/logging"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "bedrock", "LLM provider (bedrock, gemini, openai)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum email body size to send to LLM")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	// Pipeline flags
	useRules     = flag.Bool("use-rules", true, "Enable the learned-rules stage")
	useAI        = flag.Bool("use-ai", false, "Enable the AI classification stage")
	contactsList = flag.String("contacts", "", "Comma-separated list of known contact addresses or domains")
	referenceNow = flag.String("now", "", "Reference time for digest sections (RFC3339, default current time)")

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	now := time.Now()
	if *referenceNow != "" {
		now, err = time.Parse(time.RFC3339, *referenceNow)
		if err != nil {
			logger.Fatal("Invalid -now value", zap.Error(err))
		}
	}

	service, err := buildClassifier(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build classifier", zap.Error(err))
	}

	emails, err := readEmails(flag.Args(), logger)
	if err != nil {
		logger.Fatal("Failed to read emails", zap.Error(err))
	}
	if len(emails) == 0 {
		logger.Fatal("No emails to process")
	}

	ctx := context.Background()
	classifierCfg := cfg.GetClassifier()
	classified := service.ClassifyBatch(ctx, emails, classifierCfg.UseRules, classifierCfg.UseAI)

	extractor := extract.NewExtractor(logger)
	entities := extractor.ExtractAll(emails, classified)

	digestCfg := cfg.GetDigest()
	enricher := core.NewEnricher(digestCfg.TodayHorizon, digestCfg.UpcomingDays, digestCfg.StaleGrace, logger)
	entities = enricher.Enrich(entities, now)

	deduper := core.NewDeduplicator()
	entities = deduper.Deduplicate(entities)

	synthesizer := core.NewSynthesizer(digestCfg.MaxFeatured)
	timeline := synthesizer.Synthesize(entities, len(emails), core.OrphanedTimeSensitive(entities))

	output, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode digest", zap.Error(err))
	}
	fmt.Println(string(output))
}

// buildClassifier assembles the cascade from configuration
func buildClassifier(cfg *config.Config, logger *zap.Logger) (*core.ClassifierService, error) {
	classifierCfg := cfg.GetClassifier()

	typeMapper := core.NewTypeMapper(core.DefaultTypePatterns())
	rulesEngine := core.NewRulesEngine(nil, logger, classifierCfg.RuleMinConfidence)
	fallback := core.NewFallbackClassifier()
	checker := contacts.NewChecker(classifierCfg.Contacts, logger)

	var ai *core.AIClassifier
	if classifierCfg.UseAI {
		llmFactory := factory.NewLLMFactory(cfg, logger)
		llmClient, err := llmFactory.CreateLLMClient()
		if err != nil {
			return nil, err
		}

		llmCfg := cfg.GetLLM()
		cacheTTL, err := cfg.GetDuration("cache.classification_ttl")
		if err != nil {
			cacheTTL = 24 * time.Hour
		}
		ai = core.NewAIClassifier(
			llmClient,
			cache.NewMemoryCache(logger),
			cfg.GetBool("cache.enabled"),
			logger,
			llmCfg.Provider,
			cacheTTL,
			llmCfg.Timeout,
			cfg.GetInt(llmCfg.Provider+".max_body_size"),
		)
	}

	return core.NewClassifierService(typeMapper, rulesEngine, ai, fallback, checker, logger), nil
}

// readEmails parses one message per input file, or a single message from
// stdin when no files are given
func readEmails(files []string, logger *zap.Logger) ([]*core.ParsedEmail, error) {
	if len(files) == 0 {
		email, err := readEmail(os.Stdin)
		if err != nil {
			return nil, err
		}
		logger.Info("Read email from stdin")
		return []*core.ParsedEmail{email}, nil
	}

	var emails []*core.ParsedEmail
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file, err)
		}
		email, err := readEmail(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		emails = append(emails, email)
	}
	logger.Info("Read emails", zap.Int("count", len(emails)))
	return emails, nil
}

func readEmail(r io.Reader) (*core.ParsedEmail, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, err
	}

	email := &core.ParsedEmail{
		MessageID:  strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		From:       msg.Header.Get("From"),
		To:         strings.Split(msg.Header.Get("To"), ","),
		Subject:    msg.Header.Get("Subject"),
		Body:       string(bodyBytes),
		Headers:    make(map[string][]string),
		ReceivedAt: time.Now(),
	}
	for k, v := range msg.Header {
		email.Headers[k] = v
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}

	return email, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
	}

	v.Set("classifier.use_rules", *useRules)
	v.Set("classifier.use_ai", *useAI)

	if *contactsList != "" {
		entries := strings.Split(*contactsList, ",")
		for i, entry := range entries {
			entries[i] = strings.TrimSpace(entry)
		}
		v.Set("classifier.contacts", entries)
	} else {
		v.Set("classifier.contacts", []string{})
	}

	return config.NewFromViper(v)
}
