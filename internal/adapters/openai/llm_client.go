package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the ModelClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	miniModel     string
	midModel      string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	miniModel string,
	midModel string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		miniModel:     miniModel,
		midModel:      midModel,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are an email summarization assistant. Summarize the following email for a busy reader.
Respond with a JSON object containing:
- summary_bullets: array of 1-2 strings, each at most 15 words
- action_items: array of 0-3 strings, each at most 12 words (empty array if none)
- urgency: one of "low", "med", "high"
- needs_mid_tier: boolean (true only if this email is too complex or nuanced for a small model to summarize reliably)
- why: string explaining why a more capable model is needed (empty unless needs_mid_tier is true)

Email:
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`,
	}
}

// modelFor maps a tier to the configured model name
func (c *OpenAIClient) modelFor(tier core.Tier) string {
	if tier == core.TierMid {
		return c.midModel
	}
	return c.miniModel
}

// Complete summarizes an email at the requested tier. Transport and parse
// failures are absorbed into the fixed fallback result.
func (c *OpenAIClient) Complete(ctx context.Context, tier core.Tier, subject, body string) *core.RawModelResult {
	model := c.modelFor(tier)

	// Process the body (truncate and sanitize)
	processedBody := c.textProcessor.ProcessText(body, c.maxBodySize)

	prompt := fmt.Sprintf(c.promptFormat, subject, processedBody)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email summarization assistant. Respond only with JSON.",
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
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: "json",
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Error("Failed to create chat completion with OpenAI",
			zap.String("model", model),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("Empty response from OpenAI", zap.String("model", model))
		return core.FallbackModelResult()
	}

	result, err := parseModelResponse(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("Failed to parse OpenAI response",
			zap.String("model", model),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	return core.SanitizeModelResult(result)
}

// parseModelResponse decodes the model's JSON response, rescuing JSON
// embedded in surrounding text when the model ignores the format instruction
func parseModelResponse(responseText string) (*core.RawModelResult, error) {
	var result core.RawModelResult
	if err := json.Unmarshal([]byte(responseText), &result); err == nil {
		return &result, nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}

	if jsonStart < 0 || jsonStart >= jsonEnd {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return &result, nil
}
