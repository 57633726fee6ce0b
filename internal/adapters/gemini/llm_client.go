package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the ModelClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	miniModel     *genai.GenerativeModel
	midModel      *genai.GenerativeModel
	miniName      string
	midName       string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	miniName string,
	midName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	newModel := func(name string) *genai.GenerativeModel {
		model := client.GenerativeModel(name)
		model.SetTemperature(temperature)
		model.SetTopP(topP)
		model.SetMaxOutputTokens(int32(maxTokens))
		return model
	}

	return &GeminiClient{
		client:        client,
		miniModel:     newModel(miniName),
		midModel:      newModel(midName),
		miniName:      miniName,
		midName:       midName,
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
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete summarizes an email at the requested tier. Transport and parse
// failures are absorbed into the fixed fallback result.
func (c *GeminiClient) Complete(ctx context.Context, tier core.Tier, subject, body string) *core.RawModelResult {
	model, name := c.miniModel, c.miniName
	if tier == core.TierMid {
		model, name = c.midModel, c.midName
	}

	processedBody := c.textProcessor.ProcessText(body, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, subject, processedBody)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("Failed to generate content with Gemini",
			zap.String("model", name),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("Empty response from Gemini", zap.String("model", name))
		return core.FallbackModelResult()
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	result, err := parseModelResponse(responseText)
	if err != nil {
		c.logger.Error("Failed to parse Gemini response",
			zap.String("model", name),
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
