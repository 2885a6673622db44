package superbot

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/superbot/core/config"
	coredatabase "github.com/m3rciful/superbot/core/database"
	"github.com/m3rciful/superbot/internal/aichat"
	"github.com/m3rciful/superbot/internal/aiimage"
	"github.com/m3rciful/superbot/internal/conversation"
	"github.com/m3rciful/superbot/internal/speech"
	"github.com/m3rciful/superbot/internal/weather"
)

const (
	// LedgerBackendFile stores the ledger as a JSON document on disk.
	LedgerBackendFile = "file"
	// LedgerBackendPostgres stores the ledger in the ledger_entries table.
	LedgerBackendPostgres = "postgres"

	// SecretsProviderEnv reads API keys from the config file and environment only.
	SecretsProviderEnv = "env"
	// SecretsProviderSSM fills missing API keys from AWS SSM Parameter Store.
	SecretsProviderSSM = "ssm"

	// DefaultLedgerFile matches the file name used by earlier deployments.
	DefaultLedgerFile = "keuangan.json"
)

// ConversationConfig tunes the mode state machine.
type ConversationConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout" envconfig:"CONVERSATION_IDLE_TIMEOUT"`
}

// LedgerConfig selects where income entries are persisted.
type LedgerConfig struct {
	Backend string `yaml:"backend" envconfig:"LEDGER_BACKEND"`
	File    string `yaml:"file" envconfig:"LEDGER_FILE"`
}

// OpenRouterConfig configures the AI chat adapter.
type OpenRouterConfig struct {
	APIKey    string        `yaml:"api_key" envconfig:"OPENROUTER_API_KEY"`
	BaseURL   string        `yaml:"base_url" envconfig:"OPENROUTER_BASE_URL"`
	Model     string        `yaml:"model" envconfig:"OPENROUTER_MODEL"`
	MaxTokens int64         `yaml:"max_tokens"`
	Referer   string        `yaml:"referer"`
	Timeout   time.Duration `yaml:"timeout"`
}

// HuggingFaceConfig configures the AI image adapter.
type HuggingFaceConfig struct {
	APIKey  string        `yaml:"api_key" envconfig:"HF_API_KEY"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model" envconfig:"HF_MODEL"`
	Timeout time.Duration `yaml:"timeout"`
}

// WeatherConfig configures the open-meteo adapter.
type WeatherConfig struct {
	GeocodeURL  string        `yaml:"geocode_url"`
	ForecastURL string        `yaml:"forecast_url"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheSize   int           `yaml:"cache_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// SpeechConfig configures the text-to-speech adapter.
type SpeechConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SecretsConfig names the SSM parameters holding API keys. A parameter is
// only read when the matching key is still empty after env overlay.
type SecretsConfig struct {
	Provider            string `yaml:"provider" envconfig:"SECRETS_PROVIDER"`
	Region              string `yaml:"region" envconfig:"AWS_REGION"`
	OpenRouterKeyParam  string `yaml:"openrouter_key_param" envconfig:"OPENROUTER_API_KEY_PARAM"`
	HuggingFaceKeyParam string `yaml:"huggingface_key_param" envconfig:"HF_API_KEY_PARAM"`
}

// Config is the full bot configuration: the shared core settings plus the
// conversation, ledger and adapter sections.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Conversation ConversationConfig  `yaml:"conversation"`
	Ledger       LedgerConfig        `yaml:"ledger"`
	Database     coredatabase.Config `yaml:"database"`
	OpenRouter   OpenRouterConfig    `yaml:"openrouter"`
	HuggingFace  HuggingFaceConfig   `yaml:"huggingface"`
	Weather      WeatherConfig       `yaml:"weather"`
	Speech       SpeechConfig        `yaml:"speech"`
	Secrets      SecretsConfig       `yaml:"secrets"`
}

// CoreConfig exposes the embedded core section to core/cmd.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLedger reads the configuration for offline ledger commands. The
// Telegram section is not validated, so a token is not required.
func LoadLedger(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults for the bot sections and rejects invalid values.
// The core section is validated separately by coreconfig.Normalize.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	switch {
	case cfg.Conversation.IdleTimeout == 0:
		cfg.Conversation.IdleTimeout = conversation.DefaultIdleTimeout
	case cfg.Conversation.IdleTimeout < 0:
		return fmt.Errorf("conversation.idle_timeout must be > 0")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Ledger.Backend))
	if backend == "" {
		backend = LedgerBackendFile
	}
	switch backend {
	case LedgerBackendFile:
		if strings.TrimSpace(cfg.Ledger.File) == "" {
			cfg.Ledger.File = DefaultLedgerFile
		}
	case LedgerBackendPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when ledger.backend is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid ledger.backend %q; allowed: file, postgres", cfg.Ledger.Backend)
	}
	cfg.Ledger.Backend = backend

	provider := strings.ToLower(strings.TrimSpace(cfg.Secrets.Provider))
	if provider == "" {
		provider = SecretsProviderEnv
	}
	if provider != SecretsProviderEnv && provider != SecretsProviderSSM {
		return fmt.Errorf("invalid secrets.provider %q; allowed: env, ssm", cfg.Secrets.Provider)
	}
	cfg.Secrets.Provider = provider

	if cfg.OpenRouter.BaseURL == "" {
		cfg.OpenRouter.BaseURL = aichat.DefaultBaseURL
	}
	if cfg.OpenRouter.Model == "" {
		cfg.OpenRouter.Model = aichat.DefaultModel
	}
	if cfg.OpenRouter.MaxTokens < 0 {
		return fmt.Errorf("openrouter.max_tokens must be >= 0")
	}
	if cfg.OpenRouter.MaxTokens == 0 {
		cfg.OpenRouter.MaxTokens = aichat.DefaultMaxTokens
	}
	if cfg.HuggingFace.BaseURL == "" {
		cfg.HuggingFace.BaseURL = aiimage.DefaultBaseURL
	}
	if cfg.HuggingFace.Model == "" {
		cfg.HuggingFace.Model = aiimage.DefaultModel
	}
	if cfg.Weather.GeocodeURL == "" {
		cfg.Weather.GeocodeURL = weather.DefaultGeocodeURL
	}
	if cfg.Weather.ForecastURL == "" {
		cfg.Weather.ForecastURL = weather.DefaultForecastURL
	}
	if cfg.Speech.BaseURL == "" {
		cfg.Speech.BaseURL = speech.DefaultBaseURL
	}

	for name, d := range map[string]time.Duration{
		"openrouter.timeout":  cfg.OpenRouter.Timeout,
		"huggingface.timeout": cfg.HuggingFace.Timeout,
		"weather.timeout":     cfg.Weather.Timeout,
		"weather.cache_ttl":   cfg.Weather.CacheTTL,
		"speech.timeout":      cfg.Speech.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if cfg.Weather.CacheSize < 0 {
		return fmt.Errorf("weather.cache_size must be >= 0")
	}
	return nil
}
