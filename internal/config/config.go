package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Addr          string `yaml:"addr"`
		MaxPlayers    int    `yaml:"max_players"`
		ShutdownGrace string `yaml:"shutdown_grace"`
	} `yaml:"server"`
	Quiz struct {
		Source            string `yaml:"source"`
		Folder            string `yaml:"folder"`
		QuestionsPerTopic int    `yaml:"questions_per_topic"`
	} `yaml:"quiz"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Timeout  string `yaml:"timeout"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Status struct {
		HTTPAddr       string   `yaml:"http_addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		ClearScreen    bool     `yaml:"clear_screen"`
	} `yaml:"status"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:4242"
	cfg.Server.MaxPlayers = 8
	cfg.Server.ShutdownGrace = "200ms"
	cfg.Quiz.Source = "files"
	cfg.Quiz.Folder = "qa"
	cfg.Quiz.QuestionsPerTopic = 5
	cfg.Redis.TTL = "10m"
	cfg.Redis.Timeout = "1s"
	cfg.Redis.Prefix = "trivia"
	cfg.Status.ClearScreen = true
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is
// tolerated only for DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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
