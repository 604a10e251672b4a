package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/support-bot/")
	v.AddConfigPath("$HOME/.support-bot")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SUPPORT_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Bot defaults
	v.SetDefault("bot.poll_interval", "60s")
	v.SetDefault("bot.batch_size", 10)
	v.SetDefault("bot.store_name", "Anime Empire")
	v.SetDefault("bot.store_url", "https://animeempire.example.com")
	v.SetDefault("bot.support_email", "support@animeempire.example.com")

	// Mail transport defaults
	v.SetDefault("mail.provider", "graph")
	v.SetDefault("mail.graph.tenant_id", "")
	v.SetDefault("mail.graph.client_id", "")
	v.SetDefault("mail.graph.client_secret", "")
	v.SetDefault("mail.graph.mailbox", "")
	v.SetDefault("mail.imap.server", "")
	v.SetDefault("mail.imap.port", 993)
	v.SetDefault("mail.imap.username", "")
	v.SetDefault("mail.imap.password", "")
	v.SetDefault("mail.imap.mailbox", "INBOX")
	v.SetDefault("mail.smtp.server", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.smtp.from", "")

	// Shopify defaults
	v.SetDefault("shopify.shop_domain", "")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("shopify.api_version", "2024-01")

	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.7)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Slack defaults
	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.webhook_url", "")

	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/support_bot.db")
	v.SetDefault("store.mysql.host", "localhost")
	v.SetDefault("store.mysql.port", 3306)
	v.SetDefault("store.mysql.user", "support_bot")
	v.SetDefault("store.mysql.password", "")
	v.SetDefault("store.mysql.database", "support_bot")

	// Summary defaults
	v.SetDefault("summary.enabled", true)
	v.SetDefault("summary.hour", 18)
	v.SetDefault("summary.timezone", "UTC")
	v.SetDefault("summary.recipient", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
