package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/feralbyte/authgate"
)

// config is the demo binary's configuration: the sign-in flow options
// plus local wiring. Values come from the environment first; a YAML file
// given with -config overrides them.
type config struct {
	Flow authgate.Config `yaml:"flow"`

	ListenAddr   string `env:"AUTHGATE_LISTEN_ADDR" envDefault:"127.0.0.1:8765" yaml:"listen_addr"`
	CallbackPath string `env:"AUTHGATE_CALLBACK_PATH" envDefault:"/oauth2/callback" yaml:"callback_path"`
	SessionFile  string `env:"AUTHGATE_SESSION_FILE" yaml:"session_file"`
	RedisURL     string `env:"AUTHGATE_REDIS_URL" yaml:"redis_url"`
	Debug        bool   `env:"AUTHGATE_DEBUG" yaml:"debug"`
}

func loadConfig(path string) (*config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if cfg.Flow.ClientID == "" {
		return nil, errors.New("client ID is required (AUTHGATE_CLIENT_ID)")
	}
	if cfg.Flow.RedirectURI == "" {
		cfg.Flow.RedirectURI = "http://" + cfg.ListenAddr + cfg.CallbackPath
	}
	if cfg.SessionFile == "" && cfg.RedisURL == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(home, ".authgate", "session.json")
	}
	return &cfg, nil
}
