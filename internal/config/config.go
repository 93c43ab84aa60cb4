// Package config loads edugen settings from defaults, an optional YAML
// file, a .env file and EDUGEN_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/edugen/internal/llm"
)

// ErrInvalidConfigValue wraps every validation failure.
var ErrInvalidConfigValue = errors.New("invalid configuration value")

// EnvPrefix prefixes every environment override, e.g. EDUGEN_LLM_PROVIDER.
const EnvPrefix = "EDUGEN"

// Config is the full application configuration.
type Config struct {
	LLM        llm.Config       `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Store      StoreConfig      `mapstructure:"store"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// GenerationConfig tunes the question generation pipeline.
type GenerationConfig struct {
	Temperature            float64       `mapstructure:"temperature"`
	MaxTokens              int           `mapstructure:"max_tokens"`
	Timeout                time.Duration `mapstructure:"timeout"`
	MaxContentChars        int           `mapstructure:"max_content_chars"`
	CleanContent           bool          `mapstructure:"clean_content"`
	Placeholder            string        `mapstructure:"placeholder"`
	StructuredOutput       bool          `mapstructure:"structured_output"`
	ReasoningModelPrefixes []string      `mapstructure:"reasoning_model_prefixes"`
}

type StoreConfig struct {
	// DBPath is the SQLite file. Empty means the per-user default.
	DBPath string `mapstructure:"db_path"`
}

// DedupConfig selects where in-flight request fingerprints are held.
type DedupConfig struct {
	Backend       string        `mapstructure:"backend"` // "memory" or "redis"
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // "stdout" or "none"
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions controls LoadWithOptions.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file. It must exist when set.
	ConfigPath string

	// EnvFile is a dotenv file loaded before the environment is read.
	// A missing file is ignored.
	EnvFile string

	// Validate runs Validate on the result.
	Validate bool
}

// Load reads configuration from path (optional), ./.env and the
// environment, and validates it.
func Load(path string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath: path,
		EnvFile:    ".env",
		Validate:   true,
	})
}

// LoadWithOptions is Load with explicit options.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Without an explicit provider, pick one from the standard API key
	// variables.
	if !v.InConfig("llm.provider") && os.Getenv(EnvPrefix+"_LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}

	if opts.Validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := llm.DefaultConfig()
	v.SetDefault("llm.provider", d.Provider)
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.http.endpoint", d.HTTP.Endpoint)
	v.SetDefault("llm.http.api_key", "")
	v.SetDefault("llm.http.model", d.HTTP.Model)
	v.SetDefault("llm.http.api_style", "")

	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_tokens", 4000)
	v.SetDefault("generation.timeout", 2*time.Minute)
	v.SetDefault("generation.max_content_chars", 60000)
	v.SetDefault("generation.clean_content", true)
	v.SetDefault("generation.placeholder", "Document content unavailable.")
	v.SetDefault("generation.structured_output", false)
	v.SetDefault("generation.reasoning_model_prefixes", []string{"o1", "o3", "o4"})

	v.SetDefault("store.db_path", "")

	v.SetDefault("dedup.backend", "memory")
	v.SetDefault("dedup.redis_addr", "localhost:6379")
	v.SetDefault("dedup.redis_password", "")
	v.SetDefault("dedup.redis_db", 0)
	v.SetDefault("dedup.ttl", 10*time.Minute)
	v.SetDefault("dedup.key_prefix", "edugen:inflight:")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "edugen")
}

func setConfigFile(v *viper.Viper, configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	v.SetConfigName("edugen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "edugen"))
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []ValidationError

	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "llm", Message: err.Error()})
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "llm.timeout", Message: "timeout must not be negative"})
	}

	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, ValidationError{Field: "generation.max_tokens", Message: "max_tokens must be greater than 0"})
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "generation.temperature", Message: "temperature must be between 0 and 2"})
	}
	if c.Generation.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "generation.timeout", Message: "timeout must not be negative"})
	}
	if c.Generation.MaxContentChars < 0 {
		errs = append(errs, ValidationError{Field: "generation.max_content_chars", Message: "max_content_chars must not be negative"})
	}

	switch c.Dedup.Backend {
	case "memory":
	case "redis":
		if c.Dedup.RedisAddr == "" {
			errs = append(errs, ValidationError{Field: "dedup.redis_addr", Message: "redis_addr is required for the redis backend"})
		}
		if c.Dedup.TTL <= 0 {
			errs = append(errs, ValidationError{Field: "dedup.ttl", Message: "ttl must be greater than 0"})
		}
	default:
		errs = append(errs, ValidationError{Field: "dedup.backend", Message: "backend must be one of: memory, redis"})
	}

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "server address is required"})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}
	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	validExporters := []string{"stdout", "none"}
	if c.Tracing.Enabled && !slices.Contains(validExporters, c.Tracing.Exporter) {
		errs = append(errs, ValidationError{
			Field:   "tracing.exporter",
			Message: fmt.Sprintf("exporter must be one of: %s", strings.Join(validExporters, ", ")),
		})
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, ValidationError{Field: "tracing.sample_ratio", Message: "sample_ratio must be between 0 and 1"})
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w:\n%s", ErrInvalidConfigValue, strings.Join(msgs, "\n"))
}

// MaskSensitiveValues returns a copy safe to log.
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c
	masked.LLM.OpenAI.APIKey = maskValue(c.LLM.OpenAI.APIKey)
	masked.LLM.Anthropic.APIKey = maskValue(c.LLM.Anthropic.APIKey)
	masked.LLM.Gemini.APIKey = maskValue(c.LLM.Gemini.APIKey)
	masked.LLM.OpenRouter.APIKey = maskValue(c.LLM.OpenRouter.APIKey)
	masked.LLM.HTTP.APIKey = maskValue(c.LLM.HTTP.APIKey)
	masked.Dedup.RedisPassword = maskValue(c.Dedup.RedisPassword)
	return &masked
}

func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}
