package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsToLongpoll(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "telegram:\n  token: abc\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, "abc", cfg.Telegram.Token)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")
	path := writeConfig(t, "telegram:\n  token: from-yaml\nlogging:\n  level: info\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Telegram.Token)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=dotenv-token\n"), 0o600))
	t.Setenv("BOT_TOKEN", "")
	os.Unsetenv("BOT_TOKEN")
	path := writeConfig(t, "telegram:\n  run_mode: polling\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dotenv-token", cfg.Telegram.Token)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":    {},
		"bad run mode":     {Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
		"webhook no url":   {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}, Webhook: WebhookConfig{Listen: "0.0.0.0", Port: 8443}},
		"webhook no port":  {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}, Webhook: WebhookConfig{URL: "https://x", Listen: "0.0.0.0"}},
		"negative timeout": {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
		"negative retries": {Telegram: TelegramConfig{Token: "t"}, Sender: SenderConfig{MaxRetries: -1}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, Normalize(&cfg))
		})
	}
	require.Error(t, Normalize(nil))
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}
