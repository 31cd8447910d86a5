package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", Addr(cfg))
	assert.Equal(t, "/changrep", cfg.Slack.SlashCommand)
	assert.Equal(t, 20, cfg.Display.Limit)
	assert.True(t, cfg.Groups.Enabled)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 30*time.Second, ReadTimeout(cfg))
	assert.Equal(t, 10*time.Second, SlackHTTPTimeout(cfg))
	assert.Equal(t, 30*time.Minute, IdleEviction(cfg))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9191
slack:
  bot_token: xoxb-test
  slash_command: /chans
  page_limit: 500
  exclude_archived: true
groups:
  enabled: false
display:
  limit: 5
auth:
  enabled: true
  keys:
    - id: ci
      key: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
	assert.Equal(t, "/chans", cfg.Slack.SlashCommand)
	assert.Equal(t, 500, cfg.Slack.PageLimit)
	assert.True(t, cfg.Slack.ExcludeArchived)
	assert.False(t, cfg.Groups.Enabled)
	assert.Equal(t, 5, cfg.Display.Limit)
	require.Len(t, cfg.Auth.Keys, 1)
	assert.Equal(t, "ci", cfg.Auth.Keys[0].ID)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHANGREP_SERVER_PORT", "7070")
	t.Setenv("CHANGREP_SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("CHANGREP_GROUPS_ENABLED", "false")
	t.Setenv("CHANGREP_LOG_LEVEL", "debug")
	t.Setenv("CHANGREP_AUTH_ENABLED", "true")
	t.Setenv("CHANGREP_AUTH_KEY", strings.Repeat("ab", 32))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken)
	assert.False(t, cfg.Groups.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Auth.Enabled)
	require.Len(t, cfg.Auth.Keys, 1)
	assert.Equal(t, "env", cfg.Auth.Keys[0].ID)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"slash command", func(c *Config) { c.Slack.SlashCommand = "chans" }},
		{"page limit", func(c *Config) { c.Slack.PageLimit = 2000 }},
		{"display limit", func(c *Config) { c.Display.Limit = 0 }},
		{"ratelimit", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"mcp path", func(c *Config) { c.MCP.HTTP.Path = "mcp" }},
		{"auth without keys", func(c *Config) { c.Auth.Enabled = true }},
		{"short key hash", func(c *Config) {
			c.Auth.Keys = []APIKey{{ID: "x", Key: "abc"}}
		}},
		{"log format", func(c *Config) { c.Logging.Format = "logfmt" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, validate(cfg))
		})
	}
}
