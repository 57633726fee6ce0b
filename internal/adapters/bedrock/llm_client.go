package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/utils"
	"go.uber.org/zap"
)

// BedrockClient is an implementation of the ModelClient interface using Amazon Bedrock
type BedrockClient struct {
	client        *bedrockruntime.Client
	miniModelID   string
	midModelID    string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client *bedrockruntime.Client,
	miniModelID string,
	midModelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		miniModelID:   miniModelID,
		midModelID:    midModelID,
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

// modelFor maps a tier to the configured model id
func (c *BedrockClient) modelFor(tier core.Tier) string {
	if tier == core.TierMid {
		return c.midModelID
	}
	return c.miniModelID
}

func isAnthropicModel(modelID string) bool {
	return strings.Contains(modelID, "anthropic.")
}

func isAmazonTitanModel(modelID string) bool {
	return strings.Contains(modelID, "amazon.titan")
}

// Complete summarizes an email at the requested tier. Transport and parse
// failures are absorbed into the fixed fallback result.
func (c *BedrockClient) Complete(ctx context.Context, tier core.Tier, subject, body string) *core.RawModelResult {
	modelID := c.modelFor(tier)

	// Process the body (truncate and sanitize)
	processedBody := c.textProcessor.ProcessText(body, c.maxBodySize)

	prompt := fmt.Sprintf(c.promptFormat, subject, processedBody)

	// Create the request based on the model family
	var payload []byte
	var err error

	if isAnthropicModel(modelID) {
		payload, err = json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		})
	} else if isAmazonTitanModel(modelID) {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}

	if err != nil {
		c.logger.Error("Failed to marshal request payload", zap.Error(err))
		return core.FallbackModelResult()
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		c.logger.Error("Failed to invoke Bedrock model",
			zap.String("model_id", modelID),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	responseText, err := extractResponseText(modelID, resp.Body)
	if err != nil {
		c.logger.Error("Failed to decode Bedrock response",
			zap.String("model_id", modelID),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	result, err := parseModelResponse(responseText)
	if err != nil {
		c.logger.Error("Failed to parse Bedrock response",
			zap.String("model_id", modelID),
			zap.Error(err))
		return core.FallbackModelResult()
	}

	return core.SanitizeModelResult(result)
}

// extractResponseText pulls the generated text out of the model-family
// specific response envelope
func extractResponseText(modelID string, body []byte) (string, error) {
	if isAnthropicModel(modelID) {
		var claudeResp struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		if len(claudeResp.Content) == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return claudeResp.Content[0].Text, nil
	}

	if isAmazonTitanModel(modelID) {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(body), nil
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
