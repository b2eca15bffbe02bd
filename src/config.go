package src

import (
	"errors"
	"fmt"
	"io/fs"

	"linebot_responder/src/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig      model.LogConfig      `envconfig:""`
	ServerConfig   model.ServerConfig   `envconfig:""`
	Neo4jConfig    model.Neo4jConfig    `envconfig:""`
	LineConfig     model.LineConfig     `envconfig:""`
	OllamaConfig   model.OllamaConfig   `envconfig:""`
	ResolverConfig model.ResolverConfig `envconfig:""`
	FallbackConfig model.FallbackConfig `envconfig:""`
	RedisConfig    model.RedisConfig    `envconfig:""`
}

// LoadConfig reads .env files when present, then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file: %w", err)
	}

	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values envconfig cannot express with tags
func (c *Config) Validate() error {
	t := c.ResolverConfig.SimilarityThreshold
	if t < -1 || t > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be within [-1, 1], got %v", t)
	}
	if c.FallbackConfig.Apology == "" {
		return errors.New("FALLBACK_APOLOGY must not be empty")
	}
	if c.ServerConfig.Addr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	return nil
}

// ValidateLine checks the credentials the webhook endpoint cannot run without
func (c *Config) ValidateLine() error {
	if c.LineConfig.ChannelSecret == "" {
		return errors.New("LINE_CHANNEL_SECRET is required")
	}
	if c.LineConfig.ChannelAccessToken == "" {
		return errors.New("LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	return nil
}
