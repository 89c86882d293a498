package filter

import (
	"testing"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
)

// mapResolver resolves keys from a plain map, standing in for the message
// catalog.
type mapResolver map[string]string

func (r mapResolver) Resolve(key string, _ language.Tag) (string, error) {
	template, ok := r[key]
	if !ok {
		return "", errors.Newf("unknown key %q", key)
	}
	return template, nil
}

func TestTemplatePrefix(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"placeholder mid-string", "Unable to match profile {0} for {1}", "Unable to match profile "},
		{"no placeholder", "This element does not match any known slice", "This element does not match any known slice"},
		{"leading placeholder keeps full text", "{0} could not be matched", "{0} could not be matched"},
		{"only first placeholder counts", "Entry {0} declares {1}", "Entry "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := templatePrefix(tt.template); got != tt.want {
				t.Errorf("templatePrefix(%q) = %q; want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestNewSuppressionSet(t *testing.T) {
	resolver := mapResolver{
		"Key_A": "Profile {0} did not match",
		"Key_B": "Static message without placeholders",
	}
	set, err := NewSuppressionSet(map[string]string{"Key_A": "noise", "Key_B": "noise"}, language.English, resolver)
	if err != nil {
		t.Fatalf("NewSuppressionSet: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", set.Len())
	}

	tests := []struct {
		message string
		allowed bool
	}{
		{"Profile http://x did not match", false},
		{"Static message without placeholders", false},
		{"Static message without placeholders, with detail", false},
		{"Unrelated finding", true},
		{"prefix not at start: Profile http://x did not match", true},
	}
	for _, tt := range tests {
		if got := set.Allowed(tt.message); got != tt.allowed {
			t.Errorf("Allowed(%q) = %v; want %v", tt.message, got, tt.allowed)
		}
	}
}

func TestNewSuppressionSet_UnresolvableKey(t *testing.T) {
	_, err := NewSuppressionSet(map[string]string{"Missing": "why"}, language.English, mapResolver{})
	if err == nil {
		t.Fatal("expected error for unresolvable suppression key")
	}
}

func TestNewSuppressionSet_Empty(t *testing.T) {
	set, err := NewSuppressionSet(nil, language.English, mapResolver{})
	if err != nil {
		t.Fatalf("NewSuppressionSet: %v", err)
	}
	if !set.Allowed("anything at all") {
		t.Error("an empty suppression set must allow every message")
	}
}

func TestDefaultSuppressions(t *testing.T) {
	keys := DefaultSuppressions()
	for _, key := range []string{
		"Reference_REF_CantMatchChoice",
		"BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES",
		"Validation_VAL_Profile_NoMatch",
		"This_element_does_not_match_any_known_slice_",
	} {
		if rationale, ok := keys[key]; !ok || rationale == "" {
			t.Errorf("default suppression %q missing or without rationale", key)
		}
	}
}
