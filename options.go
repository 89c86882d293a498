package validationservice

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/Boereck/DEMIS-validation-service/catalog"
	"github.com/Boereck/DEMIS-validation-service/filter"
)

// Option configures the Pipeline.
type Option func(*Options)

// Options holds all configuration for the Pipeline.
type Options struct {
	// MinSeverity is the lowest severity a finding must have to appear in
	// the outcome. Parsed with ParseSeverity; an unknown value fails
	// pipeline construction.
	MinSeverity string

	// Locale selects the message catalog used to localize findings and to
	// derive the suppression prefixes.
	Locale language.Tag

	// Suppressions maps message template keys to the rationale for
	// suppressing them. Nil means the built-in defaults.
	Suppressions map[string]string

	// Catalog resolves message template keys. Nil means the built-in
	// catalog.
	Catalog *catalog.Catalog

	// Logger receives structured pipeline logs.
	Logger zerolog.Logger
}

func defaultOptions() *Options {
	return &Options{
		MinSeverity:  "error",
		Locale:       language.English,
		Suppressions: filter.DefaultSuppressions(),
		Catalog:      catalog.Default(),
		Logger:       zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// WithMinSeverity sets the outcome severity threshold ("information",
// "warning", "error" or "fatal").
func WithMinSeverity(severity string) Option {
	return func(o *Options) { o.MinSeverity = severity }
}

// WithLocale sets the locale for localized messages and suppression
// prefixes.
func WithLocale(loc language.Tag) Option {
	return func(o *Options) { o.Locale = loc }
}

// WithSuppressions replaces the default suppression keys.
func WithSuppressions(keys map[string]string) Option {
	return func(o *Options) { o.Suppressions = keys }
}

// WithCatalog replaces the built-in message catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *Options) { o.Catalog = c }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
