package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the relay's process-wide settings, read once at startup
type Config struct {
	GeminiAPIKey      string        `validate:"required_unless=LLMMock true"`
	GeminiModel       string        `validate:"required"`
	GeminiTemperature float32       `validate:"gte=0,lte=2"`
	Port              string        `validate:"required,numeric"`
	PromptDir         string        `validate:"required"`
	UploadDir         string        `validate:"required"`
	MaxUploadBytes    int64         `validate:"gt=0"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
	LLMMock           bool
}

// Keys, as environment variables and as flag-bound viper keys
const (
	KeyGeminiAPIKey      = "GEMINI_API_KEY"
	KeyGeminiModel       = "GEMINI_MODEL"
	KeyGeminiTemperature = "GEMINI_TEMPERATURE"
	KeyPort              = "PORT"
	KeyPromptDir         = "PROMPT_DIR"
	KeyUploadDir         = "UPLOAD_DIR"
	KeyMaxUploadBytes    = "MAX_UPLOAD_BYTES"
	KeyShutdownTimeout   = "SHUTDOWN_TIMEOUT"
	KeyLLMMock           = "LLM_MOCK"
)

// FlagKeys maps command-line flag names to config keys
var FlagKeys = map[string]string{
	"port":       KeyPort,
	"prompt-dir": KeyPromptDir,
	"upload-dir": KeyUploadDir,
	"mock-llm":   KeyLLMMock,
}

type loaderOptions struct {
	envFile string
	flags   *pflag.FlagSet
}

// Option customizes Load
type Option func(*loaderOptions)

// WithEnvFile sets the .env file to read; a missing file is ignored
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithFlags binds command-line flags so that set flags override the environment
func WithFlags(flags *pflag.FlagSet) Option {
	return func(o *loaderOptions) { o.flags = flags }
}

// Load reads configuration from .env, the environment and flags, then validates it
func Load(opts ...Option) (*Config, error) {
	o := loaderOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault(KeyGeminiModel, "gemini-2.0-flash")
	v.SetDefault(KeyGeminiTemperature, 0.15)
	v.SetDefault(KeyPort, "3000")
	v.SetDefault(KeyPromptDir, ".")
	v.SetDefault(KeyUploadDir, "uploads")
	v.SetDefault(KeyMaxUploadBytes, 32<<20)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyLLMMock, false)
	v.AutomaticEnv()

	if o.flags != nil {
		for name, key := range FlagKeys {
			if flag := o.flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		GeminiAPIKey:      strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
		GeminiModel:       v.GetString(KeyGeminiModel),
		GeminiTemperature: float32(v.GetFloat64(KeyGeminiTemperature)),
		Port:              v.GetString(KeyPort),
		PromptDir:         v.GetString(KeyPromptDir),
		UploadDir:         v.GetString(KeyUploadDir),
		MaxUploadBytes:    v.GetInt64(KeyMaxUploadBytes),
		ShutdownTimeout:   v.GetDuration(KeyShutdownTimeout),
		LLMMock:           v.GetBool(KeyLLMMock),
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address for the configured port
func (c *Config) Addr() string {
	return ":" + c.Port
}

// BodyLimit renders MaxUploadBytes in the form echo's BodyLimit middleware expects
func (c *Config) BodyLimit() string {
	return fmt.Sprintf("%dB", c.MaxUploadBytes)
}
