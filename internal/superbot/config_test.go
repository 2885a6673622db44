package superbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/superbot/internal/aichat"
	"github.com/m3rciful/superbot/internal/conversation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("SECRETS_PROVIDER", "")
	path := writeConfig(t, "telegram:\n  token: abc\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "abc", cfg.CoreConfig().Telegram.Token)
	require.Equal(t, conversation.DefaultIdleTimeout, cfg.Conversation.IdleTimeout)
	require.Equal(t, LedgerBackendFile, cfg.Ledger.Backend)
	require.Equal(t, DefaultLedgerFile, cfg.Ledger.File)
	require.Equal(t, SecretsProviderEnv, cfg.Secrets.Provider)
	require.Equal(t, aichat.DefaultModel, cfg.OpenRouter.Model)
	require.EqualValues(t, aichat.DefaultMaxTokens, cfg.OpenRouter.MaxTokens)
	require.Empty(t, cfg.OpenRouter.APIKey)
}

func TestLoadReadsSectionsAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "or-env")
	t.Setenv("HF_API_KEY", "hf-env")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("SECRETS_PROVIDER", "")
	path := writeConfig(t, `telegram:
  token: abc
conversation:
  idle_timeout: 2m
ledger:
  file: data/ledger.json
openrouter:
  api_key: or-yaml
  model: some/model
weather:
  cache_ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, cfg.Conversation.IdleTimeout)
	require.Equal(t, "data/ledger.json", cfg.Ledger.File)
	require.Equal(t, "or-env", cfg.OpenRouter.APIKey)
	require.Equal(t, "hf-env", cfg.HuggingFace.APIKey)
	require.Equal(t, "some/model", cfg.OpenRouter.Model)
	require.Equal(t, time.Hour, cfg.Weather.CacheTTL)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "")
	os.Unsetenv("BOT_TOKEN")
	_, err := Load(writeConfig(t, "ledger:\n  backend: file\n"))
	require.Error(t, err)
}

func TestNormalizePostgresDefaultsPort(t *testing.T) {
	cfg := &Config{Ledger: LedgerConfig{Backend: " Postgres "}}
	cfg.Database.Host = "db"
	cfg.Database.Name = "superbot"

	require.NoError(t, Normalize(cfg))
	require.Equal(t, LedgerBackendPostgres, cfg.Ledger.Backend)
	require.Equal(t, "5432", cfg.Database.Port)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"negative idle":        {Conversation: ConversationConfig{IdleTimeout: -time.Second}},
		"unknown backend":      {Ledger: LedgerConfig{Backend: "sqlite"}},
		"postgres no host":     {Ledger: LedgerConfig{Backend: LedgerBackendPostgres}},
		"unknown secrets":      {Secrets: SecretsConfig{Provider: "vault"}},
		"negative tokens":      {OpenRouter: OpenRouterConfig{MaxTokens: -1}},
		"negative timeout":     {Weather: WeatherConfig{Timeout: -time.Second}},
		"negative cache":       {Weather: WeatherConfig{CacheSize: -1}},
		"negative tts timeout": {Speech: SpeechConfig{Timeout: -time.Second}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, Normalize(&cfg))
		})
	}
	require.Error(t, Normalize(nil))
}

func TestLoadLedgerSkipsTelegramValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "")
	os.Unsetenv("BOT_TOKEN")
	t.Setenv("LEDGER_BACKEND", "")

	cfg, err := LoadLedger(writeConfig(t, "ledger:\n  file: ledger.json\n"))
	require.NoError(t, err)
	require.Equal(t, "ledger.json", cfg.Ledger.File)
	require.Equal(t, LedgerBackendFile, cfg.Ledger.Backend)
}
