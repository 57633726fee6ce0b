package config

// LLMConfig represents the configuration for the model provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	MiniModel   string
	MidModel    string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	MiniModel   string
	MidModel    string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	MiniModelID string
	MidModelID  string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GmailConfig represents the configuration for the Gmail adapter
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	PageSize     int
}

// OutlookConfig represents the configuration for the Outlook adapter
type OutlookConfig struct {
	BaseURL       string
	PageSize      int
	ArchiveFolder string
}

// GetLLM returns the model provider configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		MiniModel:   c.GetString("openai.mini_model"),
		MidModel:    c.GetString("openai.mid_model"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		MiniModel:   c.GetString("gemini.mini_model"),
		MidModel:    c.GetString("gemini.mid_model"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		MiniModelID: c.GetString("bedrock.mini_model_id"),
		MidModelID:  c.GetString("bedrock.mid_model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGmail returns the Gmail adapter configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		ClientID:     c.GetString("gmail.client_id"),
		ClientSecret: c.GetString("gmail.client_secret"),
		PageSize:     c.GetInt("gmail.page_size"),
	}
}

// GetOutlook returns the Outlook adapter configuration
func (c *Config) GetOutlook() OutlookConfig {
	return OutlookConfig{
		BaseURL:       c.GetString("outlook.base_url"),
		PageSize:      c.GetInt("outlook.page_size"),
		ArchiveFolder: c.GetString("outlook.archive_folder"),
	}
}
