package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ChannelAccessToken string `envconfig:"LINE_CHANNEL_ACCESS_TOKEN" required:"true"`
	ChannelSecret      string `envconfig:"LINE_CHANNEL_SECRET" required:"true"`

	// BaseURL prefixes asset paths in outgoing messages. Empty means
	// https://<request host>.
	BaseURL      string `envconfig:"BASE_URL"`
	Port         string `envconfig:"PORT" default:"8080"`
	DataDir      string `envconfig:"DATA_DIR" default:"."`
	StaticDir    string `envconfig:"STATIC_DIR" default:"static"`
	ScenarioFile string `envconfig:"SCENARIO_FILE"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// AdminToken guards the operator endpoints; they are not mounted when empty.
	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

func Load() (*Config, error) {
	// .env is optional, env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize trims values, restores defaults for variables set to the empty
// string and checks the secrets.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.ChannelAccessToken = strings.TrimSpace(cfg.ChannelAccessToken)
	cfg.ChannelSecret = strings.TrimSpace(cfg.ChannelSecret)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	for _, req := range []struct {
		name, val string
	}{
		{"LINE_CHANNEL_ACCESS_TOKEN", cfg.ChannelAccessToken},
		{"LINE_CHANNEL_SECRET", cfg.ChannelSecret},
	} {
		if req.val == "" {
			return fmt.Errorf("required env var %s is not set", req.name)
		}
	}

	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "https://") && !strings.HasPrefix(cfg.BaseURL, "http://") {
		return fmt.Errorf("BASE_URL %q must start with http:// or https://", cfg.BaseURL)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q; allowed: console, json", cfg.LogFormat)
	}
	return nil
}
