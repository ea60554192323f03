package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM      LLMConfig
	Google   GoogleConfig
	Server   ServerConfig
	History  HistoryConfig
	LogLevel string `mapstructure:"log_level"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// GoogleConfig holds the Google Calendar configuration.
// CredentialsFile is the downloaded OAuth desktop-app client secret;
// TokenFile caches the user token obtained by the auth command.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	CalendarID      string `mapstructure:"calendar_id"`
	Timezone        string `mapstructure:"timezone"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// HistoryConfig holds the request history configuration
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads the configuration from config.yaml (or CONFIG_PATH).
// The config file is optional: every key has a default, and the LLM
// API key can come from the LLM_API_KEY environment variable, which
// the .env file loaded at startup may provide.
func Load() (*Config, error) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		viper.SetConfigFile(p)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("google.credentials_file", "credentials.json")
	viper.SetDefault("google.token_file", "token.json")
	viper.SetDefault("google.calendar_id", "primary")
	viper.SetDefault("google.timezone", "Local")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("history.path", "history.db")
	viper.SetDefault("log_level", "info")

	if err := viper.BindEnv("llm.api_key", "LLM_API_KEY"); err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
