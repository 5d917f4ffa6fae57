package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"cinestream.app/cinebot/internal/locale"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	LLMProvider    string   `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey   string   `env:"GEMINI_API_KEY"`
	LegacyAPIKey   string   `env:"API_KEY"` // accepted when GEMINI_API_KEY is unset
	GeminiModel    string   `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OpenAIAPIKey   string   `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string   `env:"OPENAI_BASE_URL"`
	OpenAIModel    string   `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Temperature    float32  `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	DatabaseURL    string   `env:"DATABASE_URL" envDefault:"cinestream.db"`
	HTTPPort       string   `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"INFO"`
	JWTSecret      string   `env:"JWT_SECRET"`
	DefaultLocale  string   `env:"DEFAULT_LOCALE" envDefault:"fr"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Set by LoadConfig for the caller to report once logging is up.
	DotEnvLoaded       bool
	JWTSecretGenerated bool
}

// LoadConfig reads .env (if present) and the environment. A missing LLM
// credential is not an error: the assistant answers with a fixed message.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.DotEnvLoaded = godotenv.Load() == nil

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider != ProviderGemini && cfg.LLMProvider != ProviderOpenAI {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	loc, err := locale.Parse(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LOCALE: %w", err)
	}
	cfg.DefaultLocale = string(loc)

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.JWTSecretGenerated = true
	}

	return cfg, nil
}

// Credential returns the API key of the selected provider, or "" when none
// is configured.
func (c *Config) Credential() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return strings.TrimSpace(c.OpenAIAPIKey)
	default:
		if key := strings.TrimSpace(c.GeminiAPIKey); key != "" {
			return key
		}
		return strings.TrimSpace(c.LegacyAPIKey)
	}
}

func (c *Config) Locale() locale.Locale {
	return locale.Locale(c.DefaultLocale)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
