// Package gemini drafts policy-compliant replies with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/animeempire/support-bot/internal/core"
	"github.com/animeempire/support-bot/internal/utils"
)

// PolicyClient is an implementation of the PolicyEngine interface using Google Gemini
type PolicyClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewPolicyClient creates a new Gemini policy client
func NewPolicyClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*PolicyClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(core.SystemPrompt)},
	}

	return &PolicyClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *PolicyClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Generate drafts a reply for the given customer context.
func (c *PolicyClient) Generate(ctx context.Context, pctx *core.PolicyContext) (string, error) {
	bounded := *pctx
	bounded.Body = c.textProcessor.ProcessText(pctx.Body, c.maxBodySize)

	resp, err := c.model.GenerateContent(ctx, genai.Text(bounded.Render()))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

var _ core.PolicyEngine = (*PolicyClient)(nil)
