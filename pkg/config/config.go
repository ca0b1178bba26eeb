package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the portal service
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// AI assistant (Gemini) configuration
	Assistant AssistantConfig `mapstructure:"assistant"`

	// Upload boundary configuration
	Uploads UploadConfig `mapstructure:"uploads"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// AssistantConfig holds generative-AI gateway configuration
type AssistantConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Temperature    float64 `mapstructure:"temperature"`
	HistoryWindow  int    `mapstructure:"history_window"`
}

// UploadConfig holds file-input boundary limits
type UploadConfig struct {
	ChatAttachmentMaxBytes int64 `mapstructure:"chat_attachment_max_bytes"`
	ReportMaxBytes         int64 `mapstructure:"report_max_bytes"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/smarthealth")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Assistant defaults
	viper.SetDefault("assistant.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("assistant.model", "gemini-2.5-flash")
	viper.SetDefault("assistant.timeout_seconds", 60)
	viper.SetDefault("assistant.temperature", 0.7)
	viper.SetDefault("assistant.history_window", 5)

	// Upload defaults: 20MB for chat attachments, 10MB for report uploads
	viper.SetDefault("uploads.chat_attachment_max_bytes", 20*1024*1024)
	viper.SetDefault("uploads.report_max_bytes", 10*1024*1024)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Assistant.APIKey = apiKey
	}

	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.Assistant.Model = model
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Assistant.APIKey == "" {
		return fmt.Errorf("assistant API key is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Uploads.ChatAttachmentMaxBytes <= 0 || config.Uploads.ReportMaxBytes <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}

	if config.Assistant.HistoryWindow < 0 {
		return fmt.Errorf("invalid assistant history window: %d", config.Assistant.HistoryWindow)
	}

	return nil
}
