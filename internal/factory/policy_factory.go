// Package factory builds adapters from configuration.
package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/adapters/bedrock"
	"github.com/animeempire/support-bot/internal/adapters/gemini"
	"github.com/animeempire/support-bot/internal/adapters/openai"
	"github.com/animeempire/support-bot/internal/config"
	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/utils"
)

// PolicyFactory creates policy engine clients
type PolicyFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewPolicyFactory creates a new policy engine factory
func NewPolicyFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *PolicyFactory {
	return &PolicyFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreatePolicyEngine creates a policy engine based on the configured provider
func (f *PolicyFactory) CreatePolicyEngine() (core.PolicyEngine, error) {
	switch provider := f.cfg.GetString("llm.provider"); provider {
	case "openai":
		return f.createOpenAI()
	case "bedrock":
		return f.createBedrock()
	case "gemini":
		return f.createGemini()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

func (f *PolicyFactory) createOpenAI() (core.PolicyEngine, error) {
	cfg := f.cfg.GetOpenAI()
	client := goopenai.NewClient(cfg.APIKey)
	return openai.NewPolicyClient(
		client,
		cfg.ModelName,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

func (f *PolicyFactory) createBedrock() (core.PolicyEngine, error) {
	cfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewPolicyClient(
		bedrockruntime.NewFromConfig(awsCfg),
		cfg.ModelID,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

func (f *PolicyFactory) createGemini() (core.PolicyEngine, error) {
	cfg := f.cfg.GetGemini()
	return gemini.NewPolicyClient(
		cfg.APIKey,
		cfg.ModelName,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
