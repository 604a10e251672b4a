// Package openai drafts policy-compliant replies with the OpenAI chat API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/utils"
)

// PolicyClient is an implementation of the PolicyEngine interface using OpenAI
type PolicyClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewPolicyClient creates a new OpenAI policy client
func NewPolicyClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *PolicyClient {
	return &PolicyClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Generate drafts a reply for the given customer context. The output is
// raw model text; directive lines are left for the caller to parse.
func (c *PolicyClient) Generate(ctx context.Context, pctx *core.PolicyContext) (string, error) {
	prompt := renderPrompt(pctx, c.textProcessor, c.maxBodySize)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: core.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("Draft generated",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// renderPrompt flattens the context into the user prompt, bounding the
// customer-supplied body so a pasted novel cannot blow the token budget.
func renderPrompt(pctx *core.PolicyContext, tp *utils.TextProcessor, maxBodySize int) string {
	bounded := *pctx
	bounded.Body = tp.ProcessText(pctx.Body, maxBodySize)
	return bounded.Render()
}

var _ core.PolicyEngine = (*PolicyClient)(nil)
