package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the dashboard service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Discord     DiscordConfig             `json:"discord"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type DiscordConfig struct {
	BotToken string `json:"bot_token"`
}

type BasicConfig struct {
	ServerAddress      string `json:"server_address"`
	RecordsPath        string `json:"records_path"`
	StaticDir          string `json:"static_dir"`
	TokenTTLHours      int    `json:"token_ttl_hours"`
	ChannelCacheTTLSec int    `json:"channel_cache_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Discord.BotToken == "" {
		return nil, fmt.Errorf("discord bot_token must be configured")
	}

	if cfg.BasicConfig.RecordsPath == "" {
		cfg.BasicConfig.RecordsPath = "messages.json"
	}
	if !filepath.IsAbs(cfg.BasicConfig.RecordsPath) {
		cfg.BasicConfig.RecordsPath = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.RecordsPath)
	}
	if cfg.BasicConfig.StaticDir != "" && !filepath.IsAbs(cfg.BasicConfig.StaticDir) {
		cfg.BasicConfig.StaticDir = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.StaticDir)
	}

	return &cfg, nil
}
