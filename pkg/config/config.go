package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/quotewise/quote-engine/pkg/models"
)

// Config holds all configuration for the quote engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (API keys, passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Matcher       MatcherConfig       `yaml:"matcher"`
	RemoteMatcher RemoteMatcherConfig `yaml:"remote_matcher"`
	ModelRates    ModelRateConfig     `yaml:"model_rates"`
	Redis         RedisConfig         `yaml:"redis"`
	Equalisation  EqualisationConfig  `yaml:"equalisation"`
}

// MatcherConfig tunes the fuzzy matcher.
type MatcherConfig struct {
	// MatchThreshold is the minimum score a local match must exceed.
	MatchThreshold float64 `yaml:"match_threshold" env:"MATCH_THRESHOLD" env-default:"0.25"`

	// MinRemoteItems is the minimum item count on BOTH sides before the
	// remote matcher is attempted.
	MinRemoteItems int `yaml:"min_remote_items" env:"MIN_REMOTE_ITEMS" env-default:"5"`

	// MinRemoteMatchRate is the coverage a remote result needs to be
	// accepted without question.
	MinRemoteMatchRate float64 `yaml:"min_remote_match_rate" env:"MIN_REMOTE_MATCH_RATE" env-default:"0.5"`

	// AcceptAnyRemoteMatches keeps a remote result that fell short of
	// MinRemoteMatchRate as long as it produced at least one match.
	AcceptAnyRemoteMatches bool `yaml:"accept_any_remote_matches" env:"ACCEPT_ANY_REMOTE_MATCHES" env-default:"true"`

	// LowConfidenceThreshold marks matches below this score as low
	// confidence for risk scoring.
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold" env:"LOW_CONFIDENCE_THRESHOLD" env-default:"0.7"`

	// MaxConcurrent bounds parallel pairwise matcher calls.
	MaxConcurrent int `yaml:"max_concurrent" env:"MATCHER_MAX_CONCURRENT" env-default:"8"`
}

// RemoteMatcherConfig points at the LLM-backed matching service. The matcher
// works without it; an empty endpoint disables the remote path entirely.
type RemoteMatcherConfig struct {
	Endpoint    string  `yaml:"endpoint" env:"REMOTE_MATCHER_ENDPOINT" env-default:""`
	Model       string  `yaml:"model" env:"REMOTE_MATCHER_MODEL" env-default:"gpt-4o"`
	APIKey      string  `yaml:"-" env:"REMOTE_MATCHER_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"REMOTE_MATCHER_TEMPERATURE" env-default:"0.1"`

	// RateLimit / RateBurst throttle outbound calls (requests per second).
	RateLimit float64 `yaml:"rate_limit" env:"REMOTE_MATCHER_RATE_LIMIT" env-default:"3"`
	RateBurst int     `yaml:"rate_burst" env:"REMOTE_MATCHER_RATE_BURST" env-default:"5"`
}

// Enabled reports whether the remote matcher is configured.
func (c *RemoteMatcherConfig) Enabled() bool {
	return c.Endpoint != ""
}

// ModelRateConfig selects the model-rate lookup source.
type ModelRateConfig struct {
	// Source is "csv" for a local rate table or "api" for the lookup service.
	Source     string `yaml:"source" env:"MODEL_RATE_SOURCE" env-default:"csv"`
	APIBaseURL string `yaml:"api_base_url" env:"MODEL_RATE_API_BASE_URL" env-default:""`
	CSVPath    string `yaml:"csv_path" env:"MODEL_RATE_CSV_PATH" env-default:""`
}

// RedisConfig holds the optional match-result cache settings. An empty host
// disables caching.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Enabled reports whether the cache is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port address for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EqualisationConfig selects the default gap-filling mode.
type EqualisationConfig struct {
	Mode string `yaml:"mode" env:"EQUALISATION_MODE" env-default:"MODEL"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error; env defaults apply.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch models.EqualisationMode(c.Equalisation.Mode) {
	case models.ModeModel, models.ModePeerMedian:
	default:
		return fmt.Errorf("equalisation mode must be MODEL or PEER_MEDIAN, got %q", c.Equalisation.Mode)
	}

	switch c.ModelRates.Source {
	case "csv", "api":
	default:
		return fmt.Errorf("model rate source must be csv or api, got %q", c.ModelRates.Source)
	}

	if c.ModelRates.Source == "api" && c.ModelRates.APIBaseURL == "" {
		return fmt.Errorf("model_rates.api_base_url is required when source is api")
	}

	if c.Matcher.MatchThreshold < 0 || c.Matcher.MatchThreshold >= 1 {
		return fmt.Errorf("matcher.match_threshold must be in [0, 1), got %v", c.Matcher.MatchThreshold)
	}

	return nil
}
