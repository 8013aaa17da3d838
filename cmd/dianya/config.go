package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config is the CLI configuration file.
type config struct {
	Token     string `yaml:"token"`
	BaseURL   string `yaml:"base_url"`
	WSBaseURL string `yaml:"ws_base_url"`
	Model     string `yaml:"model"`
	Language  string `yaml:"language"`

	Realtime realtimeConfig `yaml:"realtime"`
}

type realtimeConfig struct {
	ChunkMillis  int `yaml:"chunk_millis"`
	SampleRate   int `yaml:"sample_rate"`
	CloseTimeout int `yaml:"close_timeout"` // seconds
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *config) validate() error {
	if c.Token == "" {
		c.Token = os.Getenv("DIANYA_TOKEN")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required (set it in the config file or DIANYA_TOKEN)")
	}
	if c.Model == "" {
		c.Model = "speed"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Realtime.ChunkMillis <= 0 {
		c.Realtime.ChunkMillis = 200
	}
	if c.Realtime.SampleRate <= 0 {
		c.Realtime.SampleRate = 16000
	}
	if c.Realtime.CloseTimeout <= 0 {
		c.Realtime.CloseTimeout = 30
	}
	return nil
}

func (c *realtimeConfig) chunkSize() int {
	// 16-bit mono PCM
	return c.SampleRate * 2 * c.ChunkMillis / 1000
}

func (c *realtimeConfig) chunkInterval() time.Duration {
	return time.Duration(c.ChunkMillis) * time.Millisecond
}
