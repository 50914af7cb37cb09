package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Quiz struct {
		Language           string `yaml:"language"`
		HintCooldown       string `yaml:"hint_cooldown"`
		NextCooldown       string `yaml:"next_cooldown"`
		RestartDelay       string `yaml:"restart_delay"`
		LadderSize         int    `yaml:"ladder_size"`
		StopCancelsRestart *bool  `yaml:"stop_cancels_restart"`
	} `yaml:"quiz"`
	Questions struct {
		Backend  string `yaml:"backend"`
		File     string `yaml:"file"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"questions"`
	Players struct {
		Backend string `yaml:"backend"`
		File    string `yaml:"file"`
	} `yaml:"players"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Load reads YAML config from path and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Quiz.Language == "" {
		c.Quiz.Language = "en"
	}
	if c.Quiz.LadderSize <= 0 {
		c.Quiz.LadderSize = 5
	}
	if c.Quiz.StopCancelsRestart == nil {
		v := true
		c.Quiz.StopCancelsRestart = &v
	}
	if c.Questions.Backend == "" {
		c.Questions.Backend = BackendFile
	}
	if c.Questions.File == "" {
		c.Questions.File = "resources/questions.json"
	}
	if c.Players.Backend == "" {
		c.Players.Backend = BackendFile
	}
	if c.Players.File == "" {
		c.Players.File = "resources/players.json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate rejects unknown backends and backends missing their connection settings.
func (c Config) Validate() error {
	switch c.Questions.Backend {
	case BackendFile:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("questions backend %q requires postgres.url", c.Questions.Backend)
		}
	default:
		return fmt.Errorf("unknown questions backend %q", c.Questions.Backend)
	}

	switch c.Players.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("players backend %q requires redis.addr", c.Players.Backend)
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("players backend %q requires postgres.url", c.Players.Backend)
		}
	default:
		return fmt.Errorf("unknown players backend %q", c.Players.Backend)
	}
	return nil
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
