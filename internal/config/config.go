package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dedup policy names. The two policies are mutually exclusive and selected
// per deployment; see internal/domain/analysis for their semantics.
const (
	PolicySession = "session"
	PolicySample  = "sample"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	Env           string        `mapstructure:"ENV"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir string        `mapstructure:"MIGRATIONS_DIR"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	EnrichTimeout time.Duration `mapstructure:"ENRICH_TIMEOUT"`
	DedupPolicy   string        `mapstructure:"DEDUP_POLICY"`
	MaxPDFBytes   int64         `mapstructure:"MAX_PDF_BYTES"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("ENRICH_TIMEOUT", "60s")
	v.SetDefault("DEDUP_POLICY", PolicySession)
	v.SetDefault("MAX_PDF_BYTES", 10*1024*1024)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_BASE_URL")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("ENRICH_TIMEOUT")
	v.BindEnv("DEDUP_POLICY")
	v.BindEnv("MAX_PDF_BYTES")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. The dedup policy
// must be one of the two supported values; the engine refuses to guess
// between them because their duplicate semantics are incompatible.
func (c *Config) Validate() error {
	if c.DedupPolicy != PolicySession && c.DedupPolicy != PolicySample {
		return fmt.Errorf("DEDUP_POLICY must be %q or %q, got %q", PolicySession, PolicySample, c.DedupPolicy)
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required: the enrichment step cannot run without it")
	}
	if c.EnrichTimeout <= 0 {
		return fmt.Errorf("ENRICH_TIMEOUT must be positive, got %s", c.EnrichTimeout)
	}
	if c.MaxPDFBytes <= 0 {
		return fmt.Errorf("MAX_PDF_BYTES must be positive, got %d", c.MaxPDFBytes)
	}
	return nil
}
