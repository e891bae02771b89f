package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// DigestConfig carries the temporal thresholds of the enrichment engine
// and the featured cap of the synthesizer
type DigestConfig struct {
	TodayHorizon time.Duration
	UpcomingDays int
	StaleGrace   time.Duration
	MaxFeatured  int
}

// ClassifierConfig carries the cascade settings
type ClassifierConfig struct {
	UseRules          bool
	UseAI             bool
	RuleMinConfidence float64
	Contacts          []string
	RulesPath         string
	RulesPersist      bool
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		timeout = 30 * time.Second
	}
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  timeout,
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetDigest returns the digest configuration
func (c *Config) GetDigest() DigestConfig {
	todayHorizon, err := c.GetDuration("digest.today_horizon")
	if err != nil {
		todayHorizon = time.Hour
	}
	staleGrace, err := c.GetDuration("digest.stale_grace")
	if err != nil {
		staleGrace = 24 * time.Hour
	}
	return DigestConfig{
		TodayHorizon: todayHorizon,
		UpcomingDays: c.GetInt("digest.upcoming_days"),
		StaleGrace:   staleGrace,
		MaxFeatured:  c.GetInt("digest.max_featured"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		UseRules:          c.GetBool("classifier.use_rules"),
		UseAI:             c.GetBool("classifier.use_ai"),
		RuleMinConfidence: c.GetFloat64("classifier.rule_min_confidence"),
		Contacts:          c.GetStringSlice("classifier.contacts"),
		RulesPath:         c.GetString("classifier.rules_path"),
		RulesPersist:      c.GetBool("classifier.rules_persist"),
	}
}
