package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`
	Slack struct {
		BaseURL         string `yaml:"base_url"`
		BotToken        string `yaml:"bot_token"`
		AppToken        string `yaml:"app_token"`
		SigningSecret   string `yaml:"signing_secret"`
		SlashCommand    string `yaml:"slash_command"`
		PageLimit       int    `yaml:"page_limit"`
		ExcludeArchived bool   `yaml:"exclude_archived"`
		HTTPTimeout     string `yaml:"http_timeout"`
		SocketMode      struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"socket_mode"`
	} `yaml:"slack"`
	Auth struct {
		Enabled bool     `yaml:"enabled"`
		Keys    []APIKey `yaml:"keys"`
	} `yaml:"auth"`
	Groups struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"groups"`
	Display struct {
		Limit int `yaml:"limit"`
	} `yaml:"display"`
	RateLimit struct {
		PerMinute    int    `yaml:"per_minute"`
		Burst        int    `yaml:"burst"`
		IdleEviction string `yaml:"idle_eviction"`
	} `yaml:"ratelimit"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	MCP struct {
		Enabled bool `yaml:"enabled"`
		HTTP    struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"http"`
	} `yaml:"mcp"`
	Maintenance struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"maintenance"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`
}

// APIKey is one pre-shared credential. Key holds the SHA-256 hex digest of
// the raw key, never the raw key itself.
type APIKey struct {
	ID  string `yaml:"id"`
	Key string `yaml:"key"`
}

func Default() Config {
	cfg := Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = "30s"
	cfg.Server.WriteTimeout = "30s"
	cfg.Slack.BaseURL = "https://slack.com/api"
	cfg.Slack.SlashCommand = "/changrep"
	cfg.Slack.PageLimit = 200
	cfg.Slack.ExcludeArchived = false
	cfg.Slack.HTTPTimeout = "10s"
	cfg.Slack.SocketMode.Enabled = false
	cfg.Auth.Enabled = false
	cfg.Groups.Enabled = true
	cfg.Display.Limit = 20
	cfg.RateLimit.PerMinute = 300
	cfg.RateLimit.Burst = 60
	cfg.RateLimit.IdleEviction = "30m"
	cfg.Metrics.Enabled = true
	cfg.MCP.Enabled = true
	cfg.MCP.HTTP.Enabled = true
	cfg.MCP.HTTP.Path = "/mcp"
	cfg.Maintenance.Schedule = "*/10 * * * *"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	overrideFromEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Addr(cfg Config) string {
	return cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
}

func ReadTimeout(cfg Config) time.Duration {
	d, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

func WriteTimeout(cfg Config) time.Duration {
	d, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

func SlackHTTPTimeout(cfg Config) time.Duration {
	d, _ := time.ParseDuration(cfg.Slack.HTTPTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

func IdleEviction(cfg Config) time.Duration {
	d, _ := time.ParseDuration(cfg.RateLimit.IdleEviction)
	if d == 0 {
		return 30 * time.Minute
	}
	return d
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("CHANGREP_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CHANGREP_SERVER_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = i
		}
	}
	if v := os.Getenv("CHANGREP_SLACK_BASE_URL"); v != "" {
		cfg.Slack.BaseURL = v
	}
	if v := os.Getenv("CHANGREP_SLACK_BOT_TOKEN"); v != "" {
		cfg.Slack.BotToken = v
	}
	if v := os.Getenv("CHANGREP_SLACK_APP_TOKEN"); v != "" {
		cfg.Slack.AppToken = v
	}
	if v := os.Getenv("CHANGREP_SLACK_SIGNING_SECRET"); v != "" {
		cfg.Slack.SigningSecret = v
	}
	if v := os.Getenv("CHANGREP_SLACK_SOCKET_MODE"); v != "" {
		cfg.Slack.SocketMode.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CHANGREP_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	// Accepts the sha-256 hex digest of a key, same as auth.keys entries.
	if v := os.Getenv("CHANGREP_AUTH_KEY"); v != "" {
		cfg.Auth.Keys = append(cfg.Auth.Keys, APIKey{ID: "env", Key: v})
	}
	if v := os.Getenv("CHANGREP_GROUPS_ENABLED"); v != "" {
		cfg.Groups.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CHANGREP_MCP_ENABLED"); v != "" {
		cfg.MCP.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CHANGREP_MCP_HTTP_ENABLED"); v != "" {
		cfg.MCP.HTTP.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CHANGREP_MCP_HTTP_PATH"); v != "" {
		cfg.MCP.HTTP.Path = v
	}
	if v := os.Getenv("CHANGREP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("invalid server.port")
	}
	if !strings.HasPrefix(cfg.Slack.SlashCommand, "/") {
		return errors.New("slack.slash_command must start with '/'")
	}
	if cfg.Slack.PageLimit <= 0 || cfg.Slack.PageLimit > 1000 {
		return errors.New("slack.page_limit must be between 1 and 1000")
	}
	if cfg.Display.Limit <= 0 || cfg.Display.Limit > 100 {
		return errors.New("display.limit must be between 1 and 100")
	}
	if cfg.RateLimit.PerMinute <= 0 || cfg.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.per_minute and ratelimit.burst must be > 0")
	}
	if strings.TrimSpace(cfg.MCP.HTTP.Path) == "" || cfg.MCP.HTTP.Path[0] != '/' {
		return errors.New("mcp.http.path must start with '/'")
	}
	if cfg.Auth.Enabled && len(cfg.Auth.Keys) == 0 {
		return errors.New("auth.enabled requires at least one entry in auth.keys")
	}
	for i, k := range cfg.Auth.Keys {
		if strings.TrimSpace(k.ID) == "" {
			return fmt.Errorf("auth.keys[%d].id is required", i)
		}
		if len(k.Key) != 64 {
			return fmt.Errorf("auth.keys[%d].key must be a sha-256 hex digest", i)
		}
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %s", cfg.Logging.Format)
	}
	return nil
}
