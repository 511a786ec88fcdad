// CLAUDE:SUMMARY Server configuration loaded from YAML plus environment overrides.
package config

import (
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Listen   struct {
		Addr string `yaml:"addr" env:"LISTEN_ADDR" env-default:":8420"`
	} `yaml:"listen"`
	// DataDir holds the registry database and the import journal.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`
	// Municipality names the network in chat replies and exports.
	Municipality string `yaml:"municipality" env:"MUNICIPALITY" env-default:""`
	OpenAI       struct {
		ApiKey         string `yaml:"api_key" env:"OPENAI_API_KEY" env-default:""`
		Model          string `yaml:"model" env:"OPENAI_MODEL" env-default:""`
		TimeoutSeconds int    `yaml:"timeout_seconds" env:"OPENAI_TIMEOUT_SECONDS" env-default:"60"`
	} `yaml:"openai"`
}

var (
	instance *Config
	once     sync.Once
)

// SlogLevel maps the configured level name onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MustLoad reads the config file and environment overrides once per
// process. A missing file is not an error; defaults plus environment apply.
func MustLoad(path string) *Config {
	once.Do(func() {
		instance = &Config{}
		var err error
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			err = cleanenv.ReadEnv(instance)
		} else {
			err = cleanenv.ReadConfig(path, instance)
		}
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	})
	return instance
}
