package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Stores     []string `mapstructure:"stores"`
	Matching   MatchingConfig
	Prices     PricesConfig
	Vocabulary VocabularyConfig
	Oracle     OracleConfig
	Cache      CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// RequestsPerSecond limits API calls across all clients; 0 disables the limit
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxBodyBytes      int64   `mapstructure:"max_body_bytes"`
}

// MatchingConfig holds the match policy. Preset fills every field; the
// remaining keys override the preset only when explicitly set.
type MatchingConfig struct {
	Preset                  string   `mapstructure:"preset"`
	Threshold               *float64 `mapstructure:"threshold"`
	TextWeight              *float64 `mapstructure:"text_weight"`
	OverlapWeight           *float64 `mapstructure:"overlap_weight"`
	BrandBonus              *float64 `mapstructure:"brand_bonus"`
	QuantityBonus           *float64 `mapstructure:"quantity_bonus"`
	QuantityGate            *bool    `mapstructure:"quantity_gate"`
	MissingQuantityGate     *bool    `mapstructure:"missing_quantity_gate"`
	BrandGate               *bool    `mapstructure:"brand_gate"`
	MinCommonWords          *int     `mapstructure:"min_common_words"`
	MinCommonWordsWithBrand *int     `mapstructure:"min_common_words_with_brand"`
	BorderlineMargin        *float64 `mapstructure:"borderline_margin"`
	Blocking                string   `mapstructure:"blocking"`
	CanonicalName           string   `mapstructure:"canonical_name"`
	FoldDiacritics          bool     `mapstructure:"fold_diacritics"`
	ExcludeOutOfStock       bool     `mapstructure:"exclude_out_of_stock"`
	Workers                 int      `mapstructure:"workers"`
	EnableDebugLogging      bool     `mapstructure:"enable_debug_logging"`
}

// PricesConfig holds price parsing bounds
type PricesConfig struct {
	MaxPlausible float64 `mapstructure:"max_plausible"`
}

// VocabularyConfig points at an external vocabulary file
type VocabularyConfig struct {
	Path string `mapstructure:"path"` // empty = embedded asset
}

// OracleConfig holds confirmation oracle configuration
type OracleConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MinConfidence     float64       `mapstructure:"min_confidence"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file, or searches the default
// locations when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pricelens/")
	}

	// Environment variable settings: PRICELENS_MATCHING_THRESHOLD → matching.threshold
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Env values for list keys arrive as one comma-separated string
	config.Stores = splitList(config.Stores)
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Matching policy fields are
// deliberately absent so the preset supplies them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.requests_per_second", 10.0)
	v.SetDefault("server.max_body_bytes", 10<<20)

	v.SetDefault("stores", []string{"spar", "mercator", "tus"})

	v.SetDefault("matching.preset", "gated")
	v.SetDefault("matching.fold_diacritics", true)
	v.SetDefault("matching.exclude_out_of_stock", false)
	v.SetDefault("matching.workers", 4)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("prices.max_plausible", 1000.0)

	v.SetDefault("vocabulary.path", "")

	v.SetDefault("oracle.enabled", false)
	v.SetDefault("oracle.base_url", "https://api.openai.com/v1")
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.timeout", "30s")
	v.SetDefault("oracle.requests_per_second", 1.0)
	v.SetDefault("oracle.min_confidence", 0.8)

	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.max_entries", 256)

	// Bind override keys so env vars reach Unmarshal without a default
	for _, key := range []string{
		"matching.threshold", "matching.text_weight", "matching.overlap_weight",
		"matching.brand_bonus", "matching.quantity_bonus", "matching.quantity_gate",
		"matching.missing_quantity_gate", "matching.brand_gate", "matching.min_common_words",
		"matching.min_common_words_with_brand", "matching.borderline_margin",
		"matching.blocking", "matching.canonical_name", "oracle.api_key",
	} {
		_ = v.BindEnv(key)
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.Stores) < 2 {
		return fmt.Errorf("at least two stores are required to compare prices")
	}

	seen := make(map[string]bool, len(config.Stores))
	for _, s := range config.Stores {
		if seen[s] {
			return fmt.Errorf("store %q is configured twice", s)
		}
		seen[s] = true
	}

	if config.Oracle.Enabled && config.Oracle.APIKey == "" {
		return fmt.Errorf("oracle API key is required when the oracle is enabled (set PRICELENS_ORACLE_API_KEY)")
	}

	if config.Oracle.MinConfidence < 0 || config.Oracle.MinConfidence > 1 {
		return fmt.Errorf("oracle min_confidence must be between 0 and 1, got: %v", config.Oracle.MinConfidence)
	}

	if config.Server.RequestsPerSecond < 0 {
		return fmt.Errorf("server requests_per_second must not be negative, got: %v", config.Server.RequestsPerSecond)
	}

	if config.Prices.MaxPlausible <= 0 {
		return fmt.Errorf("prices max_plausible must be positive, got: %v", config.Prices.MaxPlausible)
	}

	if _, err := config.Matching.Policy(); err != nil {
		return err
	}

	return nil
}
