package config

import "time"

// BotConfig holds the triage loop settings
type BotConfig struct {
	PollInterval time.Duration
	BatchSize    int
	StoreName    string
	StoreURL     string
	SupportEmail string
}

// GraphConfig holds the Microsoft Graph mailbox settings
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Mailbox      string
}

// IMAPConfig holds the IMAP mailbox settings
type IMAPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	Mailbox  string
}

// SMTPConfig holds the outbound mail submission settings
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
}

// ShopifyConfig holds the Shopify Admin API settings
type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
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

// SlackConfig holds the review-channel webhook settings
type SlackConfig struct {
	Enabled    bool
	WebhookURL string
}

// MySQLConfig holds the MySQL store connection settings
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// SummaryConfig holds the daily summary settings
type SummaryConfig struct {
	Enabled   bool
	Hour      int
	Timezone  string
	Recipient string
}

// GetBot returns the bot configuration
func (c *Config) GetBot() (BotConfig, error) {
	interval, err := c.GetDuration("bot.poll_interval")
	if err != nil {
		return BotConfig{}, err
	}
	return BotConfig{
		PollInterval: interval,
		BatchSize:    c.GetInt("bot.batch_size"),
		StoreName:    c.GetString("bot.store_name"),
		StoreURL:     c.GetString("bot.store_url"),
		SupportEmail: c.GetString("bot.support_email"),
	}, nil
}

// GetGraph returns the Graph mailbox configuration
func (c *Config) GetGraph() GraphConfig {
	return GraphConfig{
		TenantID:     c.GetString("mail.graph.tenant_id"),
		ClientID:     c.GetString("mail.graph.client_id"),
		ClientSecret: c.GetString("mail.graph.client_secret"),
		Mailbox:      c.GetString("mail.graph.mailbox"),
	}
}

// GetIMAP returns the IMAP mailbox configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Server:   c.GetString("mail.imap.server"),
		Port:     c.GetInt("mail.imap.port"),
		Username: c.GetString("mail.imap.username"),
		Password: c.GetString("mail.imap.password"),
		Mailbox:  c.GetString("mail.imap.mailbox"),
	}
}

// GetSMTP returns the SMTP submission configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Server:   c.GetString("mail.smtp.server"),
		Port:     c.GetInt("mail.smtp.port"),
		Username: c.GetString("mail.smtp.username"),
		Password: c.GetString("mail.smtp.password"),
		From:     c.GetString("mail.smtp.from"),
	}
}

// GetShopify returns the Shopify configuration
func (c *Config) GetShopify() ShopifyConfig {
	return ShopifyConfig{
		ShopDomain:  c.GetString("shopify.shop_domain"),
		AccessToken: c.GetString("shopify.access_token"),
		APIVersion:  c.GetString("shopify.api_version"),
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

// GetSlack returns the Slack webhook configuration
func (c *Config) GetSlack() SlackConfig {
	return SlackConfig{
		Enabled:    c.GetBool("slack.enabled"),
		WebhookURL: c.GetString("slack.webhook_url"),
	}
}

// GetMySQL returns the MySQL store configuration
func (c *Config) GetMySQL() MySQLConfig {
	return MySQLConfig{
		Host:     c.GetString("store.mysql.host"),
		Port:     c.GetInt("store.mysql.port"),
		User:     c.GetString("store.mysql.user"),
		Password: c.GetString("store.mysql.password"),
		Database: c.GetString("store.mysql.database"),
	}
}

// GetSummary returns the daily summary configuration
func (c *Config) GetSummary() SummaryConfig {
	return SummaryConfig{
		Enabled:   c.GetBool("summary.enabled"),
		Hour:      c.GetInt("summary.hour"),
		Timezone:  c.GetString("summary.timezone"),
		Recipient: c.GetString("summary.recipient"),
	}
}
