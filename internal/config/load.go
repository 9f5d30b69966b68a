// Package config assembles the Verdict configuration from tier defaults,
// an optional YAML file, and environment variable overrides.
//
// Loading sequence:
//  1. Pick base defaults by tier (VERDICT_TIER env or the file's tier field).
//  2. Unmarshal the YAML file named by VERDICT_CONFIG over the defaults.
//  3. Apply VERDICT_* environment overrides.
//  4. Validate the result.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/adelsaramii/verdict/internal/domain"
)

// Load builds the effective configuration for this process.
func Load() (*domain.Config, error) {
	path := os.Getenv("VERDICT_CONFIG")

	var raw []byte
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	tier, err := resolveTier(raw, path)
	if err != nil {
		return nil, err
	}

	var cfg *domain.Config
	switch tier {
	case domain.TierPro:
		cfg = domain.ProConfig()
	default:
		cfg = domain.DefaultConfig()
	}

	if raw != nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.Tier = tier

	detectExtractorBackend(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// resolveTier picks the tier before the base defaults are chosen. The
// environment wins over the file.
func resolveTier(raw []byte, path string) (domain.Tier, error) {
	tier := domain.TierCommunity

	if raw != nil {
		var probe struct {
			Tier domain.Tier `yaml:"tier"`
		}
		if err := yaml.Unmarshal(raw, &probe); err != nil {
			return "", fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
		if probe.Tier != "" {
			tier = probe.Tier
		}
	}

	if v := os.Getenv("VERDICT_TIER"); v != "" {
		tier = domain.Tier(v)
	}

	switch tier {
	case domain.TierCommunity, domain.TierPro:
		return tier, nil
	default:
		return "", fmt.Errorf("unknown tier: %s", tier)
	}
}

// detectExtractorBackend enables an LLM backend when its credential is in
// the environment and no backend was configured explicitly.
func detectExtractorBackend(cfg *domain.Config) {
	if cfg.Extractor.Backend != "" && cfg.Extractor.Backend != "none" {
		return
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		cfg.Extractor.Backend = "openai"
		return
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		cfg.Extractor.Backend = "gemini"
	}
}

// applyEnvOverrides applies VERDICT_SECTION_FIELD environment variables.
// Environment always wins over file-based configuration.
func applyEnvOverrides(cfg *domain.Config) {
	// Server
	if val := os.Getenv("VERDICT_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("VERDICT_SERVER_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = i
		}
	}

	// Repository
	if val := os.Getenv("VERDICT_REPOSITORY_DRIVER"); val != "" {
		cfg.Repository.Driver = val
	}
	if val := os.Getenv("VERDICT_REPOSITORY_SQLITE_PATH"); val != "" {
		cfg.Repository.SQLitePath = val
	}
	if val := os.Getenv("VERDICT_REPOSITORY_POSTGRES_HOST"); val != "" {
		cfg.Repository.PostgresHost = val
	}
	if val := os.Getenv("VERDICT_REPOSITORY_POSTGRES_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Repository.PostgresPort = i
		}
	}
	if val := os.Getenv("VERDICT_REPOSITORY_POSTGRES_USER"); val != "" {
		cfg.Repository.PostgresUser = val
	}
	if val := os.Getenv("VERDICT_REPOSITORY_POSTGRES_PASSWORD"); val != "" {
		cfg.Repository.PostgresPassword = val
	}
	if val := os.Getenv("VERDICT_REPOSITORY_POSTGRES_DB"); val != "" {
		cfg.Repository.PostgresDB = val
	}

	// Cache
	if val := os.Getenv("VERDICT_CACHE_TYPE"); val != "" {
		cfg.Cache.Type = val
	}
	if val := os.Getenv("VERDICT_CACHE_REDIS_ADDR"); val != "" {
		cfg.Cache.RedisAddr = val
	}
	if val := os.Getenv("VERDICT_CACHE_REDIS_PASSWORD"); val != "" {
		cfg.Cache.RedisPassword = val
	}
	if val := os.Getenv("VERDICT_CACHE_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.RedisDB = i
		}
	}

	// Event bus
	if val := os.Getenv("VERDICT_EVENTBUS_TYPE"); val != "" {
		cfg.EventBus.Type = val
	}
	if val := os.Getenv("VERDICT_EVENTBUS_NATS_URL"); val != "" {
		cfg.EventBus.NATSUrl = val
	}
	if val := os.Getenv("VERDICT_EVENTBUS_NATS_TOKEN"); val != "" {
		cfg.EventBus.NATSToken = val
	}

	// Extractor
	if val := os.Getenv("VERDICT_EXTRACTOR_BACKEND"); val != "" {
		cfg.Extractor.Backend = val
	}
	if val := os.Getenv("VERDICT_EXTRACTOR_MODEL"); val != "" {
		cfg.Extractor.Model = val
	}
	if val := os.Getenv("VERDICT_EXTRACTOR_TIMEOUT_SECS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Extractor.TimeoutSecs = i
		}
	}
	if val := os.Getenv("VERDICT_EXTRACTOR_BASE_URL"); val != "" {
		cfg.Extractor.BaseURL = val
	}

	// Catalog
	if val := os.Getenv("VERDICT_CATALOG_PATH"); val != "" {
		cfg.Catalog.Path = val
	}
	if val := os.Getenv("VERDICT_CATALOG_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Catalog.Watch = b
		}
	}

	// Tracing
	if val := os.Getenv("VERDICT_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("VERDICT_TRACING_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
}

// Validate rejects configurations that name unknown backends or invalid
// network settings.
func Validate(cfg *domain.Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Repository.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown repository driver: %s", cfg.Repository.Driver)
	}

	switch cfg.Cache.Type {
	case "memory", "redis", "twophase":
	default:
		return fmt.Errorf("unknown cache type: %s", cfg.Cache.Type)
	}

	switch cfg.EventBus.Type {
	case "channel", "nats":
	default:
		return fmt.Errorf("unknown event bus type: %s", cfg.EventBus.Type)
	}

	switch cfg.Extractor.Backend {
	case "openai", "gemini", "none", "":
	default:
		return fmt.Errorf("unknown extractor backend: %s", cfg.Extractor.Backend)
	}

	if cfg.Extractor.TimeoutSecs < 0 {
		return fmt.Errorf("extractor timeout must not be negative: %d", cfg.Extractor.TimeoutSecs)
	}

	return nil
}
