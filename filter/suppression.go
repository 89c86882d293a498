// Package filter decides which validation findings survive
// post-processing: noise suppression by localized message prefix and the
// minimum-severity threshold.
package filter

import (
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
)

// Resolver resolves a message template key to its localized template.
// It is satisfied by catalog.Catalog.
type Resolver interface {
	Resolve(key string, loc language.Tag) (string, error)
}

// DefaultSuppressions maps the message template keys suppressed out of
// the box to the reason each one is noise rather than signal.
func DefaultSuppressions() map[string]string {
	return map[string]string{
		"Reference_REF_CantMatchChoice": "references are checked against the full profile set, not per choice",
		"BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES": "entries declaring several profiles are expected in notification bundles",
		"Validation_VAL_Profile_NoMatch":        "profile matching is handled by the declared meta.profile instead",
		"This_element_does_not_match_any_known_slice_": "open slicing generates one such note per non-matching entry",
	}
}

// SuppressionSet holds the localized message prefixes whose findings are
// dropped. It is immutable after construction.
type SuppressionSet struct {
	prefixes []string
}

// NewSuppressionSet resolves every suppression key through the resolver
// for the given locale and derives the matching prefix from each
// template. A key the resolver does not know is a configuration error
// and fails construction.
func NewSuppressionSet(keys map[string]string, loc language.Tag, resolver Resolver) (*SuppressionSet, error) {
	prefixes := make([]string, 0, len(keys))
	for key := range keys {
		template, err := resolver.Resolve(key, loc)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving suppression key %q", key)
		}
		prefixes = append(prefixes, templatePrefix(template))
	}
	return &SuppressionSet{prefixes: prefixes}, nil
}

// templatePrefix truncates a message template at its first placeholder.
// A template that starts with a placeholder keeps its full text, since an
// empty prefix would suppress everything.
func templatePrefix(template string) string {
	if i := strings.IndexByte(template, '{'); i > 0 {
		return template[:i]
	}
	return template
}

// Allowed reports whether a rendered message survives suppression.
func (s *SuppressionSet) Allowed(message string) bool {
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(message, prefix) {
			return false
		}
	}
	return true
}

// Len returns the number of active suppression prefixes.
func (s *SuppressionSet) Len() int { return len(s.prefixes) }

// Prefixes returns a copy of the active prefixes, for diagnostics.
func (s *SuppressionSet) Prefixes() []string {
	out := make([]string, len(s.prefixes))
	copy(out, s.prefixes)
	return out
}
