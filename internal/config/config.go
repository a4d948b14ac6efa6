package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Room struct {
		MaxPlayers int `yaml:"max_players"`
	} `yaml:"room"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Scores struct {
		Prefix     string `yaml:"prefix"`
		AttemptTTL string `yaml:"attempt_ttl"`
	} `yaml:"scores"`
}

// DefaultMaxPlayers caps room size when the config does not set one.
const DefaultMaxPlayers = 5

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MaxPlayers returns the configured room capacity or the default.
func (c Config) MaxPlayers() int {
	if c.Room.MaxPlayers > 0 {
		return c.Room.MaxPlayers
	}
	return DefaultMaxPlayers
}

// ScorePrefix returns the configured redis key prefix for score data.
func (c Config) ScorePrefix() string {
	if c.Scores.Prefix != "" {
		return c.Scores.Prefix
	}
	return "quiz"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
