package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every application setting. Values loaded from the yaml
// file may be overridden by environment variables afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL             string `yaml:"ws_url"`
		Symbol            string `yaml:"symbol"`
		ReconnectDelaySec int    `yaml:"reconnect_delay_sec"`
	} `yaml:"feed"`

	Server struct {
		WSAddr   string `yaml:"ws_addr"`
		HTTPAddr string `yaml:"http_addr"`
		WebDir   string `yaml:"web_dir"`
	} `yaml:"server"`

	Engines struct {
		Active  []string           `yaml:"active"`
		Weights map[string]float64 `yaml:"weights"`
	} `yaml:"engines"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ReconnectDelay returns the upstream reconnect delay as a Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Feed.ReconnectDelaySec) * time.Second
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Feed.WSURL == "" || (!hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://")) {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed symbol is required")
	}
	if c.Feed.ReconnectDelaySec <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if c.Server.WSAddr == "" {
		return fmt.Errorf("server ws_addr is required")
	}
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server http_addr is required")
	}

	if len(c.Engines.Active) == 0 {
		return fmt.Errorf("at least one active engine is required")
	}
	for id, w := range c.Engines.Weights {
		if w < 0 {
			return fmt.Errorf("engine weight must be non-negative: %s=%v", id, w)
		}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variable overrides, which take
// precedence over the config file.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("IMBALANCE_FEED_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if symbol := os.Getenv("IMBALANCE_SYMBOL"); symbol != "" {
		cfg.Feed.Symbol = symbol
	}
	if addr := os.Getenv("IMBALANCE_WS_ADDR"); addr != "" {
		cfg.Server.WSAddr = addr
	}
	if addr := os.Getenv("IMBALANCE_HTTP_ADDR"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
	if level := os.Getenv("IMBALANCE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if delay := os.Getenv("IMBALANCE_RECONNECT_DELAY_SEC"); delay != "" {
		if sec, err := strconv.Atoi(delay); err == nil {
			cfg.Feed.ReconnectDelaySec = sec
		}
	}
}
