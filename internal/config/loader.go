package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SHATRANJ_CONFIG is set
//  3. env (prefix SHATRANJ_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SHATRANJ_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SHATRANJ_ADDR, SHATRANJ_QUOTA_COOLDOWN_SECONDS, ...
	// Map env keys like SHATRANJ_CACHE_TTL_SECONDS -> cache_ttl_seconds to
	// match the koanf tags on the struct.
	envProvider := env.Provider("SHATRANJ_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "shatranj_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	case c.DefaultRating <= 0:
		return fmt.Errorf("%w: default_rating must be positive", ErrInvalidConfig)
	case c.CacheTTLSeconds <= 0:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.QuotaCooldownSeconds <= 0:
		return fmt.Errorf("%w: quota_cooldown_seconds must be positive", ErrInvalidConfig)
	case c.LedgerTimeoutMS <= 0:
		return fmt.Errorf("%w: ledger_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
