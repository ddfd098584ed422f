package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	RxNav    RxNavConfig    `mapstructure:"rxnav"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
}

type OpenAIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model" validate:"required"`
	RetryAttempts uint   `mapstructure:"retry_attempts" validate:"lte=1"`
}

// Enabled reports whether model-assisted enrichment should be wired in.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

type RxNavConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	CacheDirectory string `mapstructure:"cache_directory"`
}

type DatabaseConfig struct {
	// DSN is the MySQL connection string for the extraction history store.
	// Empty disables history persistence.
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required,hostname_port"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/daysupply")
	}

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.retry_attempts", 1)
	v.SetDefault("rxnav.base_url", "https://rxnav.nlm.nih.gov/REST")
	v.SetDefault("rxnav.cache_directory", filepath.Join("cache", "rxnav"))
	v.SetDefault("server.address", "localhost:8080")

	// Secrets come from the environment only, never from the config file.
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}
	if err := v.BindEnv("database.dsn", "DAYSUPPLY_DB_DSN"); err != nil {
		return nil, fmt.Errorf("failed to bind DAYSUPPLY_DB_DSN environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
