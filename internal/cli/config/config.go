package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
	"github.com/conduit-lang/ptxmeta/internal/session"
)

// Config represents the ptxmeta configuration
type Config struct {
	Annotations AnnotationsConfig `mapstructure:"annotations"`
	Session     SessionConfig     `mapstructure:"session"`
	Target      TargetConfig      `mapstructure:"target"`
	Log         LogConfig         `mapstructure:"log"`
}

// AnnotationsConfig configures the annotation cache
type AnnotationsConfig struct {
	Assertions    bool   `mapstructure:"assertions"`
	LockMode      string `mapstructure:"lock_mode"`
	NegativeCache bool   `mapstructure:"negative_cache"`
}

// SessionConfig configures the compilation session
type SessionConfig struct {
	WarmWorkers int `mapstructure:"warm_workers"`
}

// TargetConfig describes the subtarget features queries depend on
type TargetConfig struct {
	NoReturn bool `mapstructure:"has_noreturn"`
}

// HasNoReturn implements annotations.Subtarget
func (t TargetConfig) HasNoReturn() bool { return t.NoReturn }

// LogConfig configures logging
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration. With an empty path it looks for ptxmeta.yml
// or ptxmeta.yaml in the working directory and falls back to defaults.
// Environment variables prefixed with PTXMETA_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("annotations.assertions", true)
	v.SetDefault("annotations.lock_mode", "global")
	v.SetDefault("annotations.negative_cache", false)
	v.SetDefault("session.warm_workers", 4)
	v.SetDefault("target.has_noreturn", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ptxmeta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PTXMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SessionOptions converts the configuration into session options
func (c *Config) SessionOptions() session.Options {
	// lock mode was checked by validateConfig
	mode, _ := annotations.ParseLockMode(c.Annotations.LockMode)
	return session.Options{
		Assertions:    c.Annotations.Assertions,
		LockMode:      mode,
		NegativeCache: c.Annotations.NegativeCache,
		WarmWorkers:   c.Session.WarmWorkers,
	}
}

// NewLogger builds a zap logger from the log configuration
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := annotations.ParseLockMode(cfg.Annotations.LockMode); err != nil {
		return fmt.Errorf("annotations.lock_mode: %w", err)
	}
	if cfg.Session.WarmWorkers <= 0 {
		return fmt.Errorf("session.warm_workers must be positive, got: %d", cfg.Session.WarmWorkers)
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
