package filter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-inbox-digest/internal/core"
)

// CliFilter classifies a single email and prints the result to stdout
type CliFilter struct {
	service  *core.ClassifierService
	logger   *zap.Logger
	verbose  bool
	useRules bool
	useAI    bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.ClassifierService, logger *zap.Logger, verbose, useRules, useAI bool) (*CliFilter, error) {
	return &CliFilter{
		service:  service,
		logger:   logger,
		verbose:  verbose,
		useRules: useRules,
		useAI:    useAI,
	}, nil
}

// ProcessEmail classifies an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.ParsedEmail) (*core.ClassifiedEmail, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	result := f.service.Classify(ctx, email, f.useRules, f.useAI)

	fmt.Printf("\n=== Classification ===\n")
	fmt.Printf("Category: %s\n", result.Category)
	fmt.Printf("Importance: %s\n", result.Importance)
	fmt.Printf("Attention: %s\n", result.Attention)
	fmt.Printf("Relationship: %s\n", result.Relationship)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Decider: %s\n", result.Decider)
	fmt.Printf("Reason: %s\n", result.Reason)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
