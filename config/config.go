// Package config loads the service configuration from environment
// variables and an optional .env file.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Boereck/DEMIS-validation-service/filter"
)

// Config holds everything the service needs at startup.
type Config struct {
	Port               string `mapstructure:"PORT"`
	Env                string `mapstructure:"ENV"`
	MinSeverityOutcome string `mapstructure:"MIN_SEVERITY_OUTCOME"`
	Locale             string `mapstructure:"LOCALE"`
	ProfileDir         string `mapstructure:"PROFILE_DIR"`
	SuppressionsFile   string `mapstructure:"SUPPRESSIONS_FILE"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment, with a .env file as an
// optional source for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "production")
	v.SetDefault("MIN_SEVERITY_OUTCOME", "error")
	v.SetDefault("LOCALE", "en")
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up.
	for _, key := range []string{
		"PORT", "ENV", "MIN_SEVERITY_OUTCOME", "LOCALE",
		"PROFILE_DIR", "SUPPRESSIONS_FILE", "LOG_LEVEL",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "binding %s", key)
		}
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// LanguageTag parses the configured locale. An unparseable locale is a
// startup error rather than a silent fallback.
func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, errors.Wrapf(err, "parsing LOCALE %q", c.Locale)
	}
	return tag, nil
}

// Suppressions returns the suppression key set: the YAML file named by
// SUPPRESSIONS_FILE when configured, the built-in defaults otherwise. The
// file maps message template keys to a free-text rationale.
func (c *Config) Suppressions() (map[string]string, error) {
	if c.SuppressionsFile == "" {
		return filter.DefaultSuppressions(), nil
	}
	data, err := os.ReadFile(c.SuppressionsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading suppressions file %s", c.SuppressionsFile)
	}
	keys := make(map[string]string)
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrapf(err, "parsing suppressions file %s", c.SuppressionsFile)
	}
	return keys, nil
}
