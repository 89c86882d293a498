// Package catalog holds the localized validation message templates.
// Templates use numbered placeholders ({0}, {1}, ...) that are filled in
// when a finding is rendered.
package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
)

// ErrMissingKey is returned when a template key is not present in the
// catalog for any supported locale.
var ErrMissingKey = errors.New("message key not found")

// Catalog resolves message template keys to localized templates. Locale
// matching follows BCP 47 semantics, so "de-AT" resolves against the
// German table and anything unsupported falls back to English.
type Catalog struct {
	matcher language.Matcher
	tags    []language.Tag
	tables  map[language.Tag]map[string]string
}

// Default returns the catalog with the built-in English and German tables.
func Default() *Catalog {
	tags := []language.Tag{language.English, language.German}
	return &Catalog{
		matcher: language.NewMatcher(tags),
		tags:    tags,
		tables: map[language.Tag]map[string]string{
			language.English: englishTemplates,
			language.German:  germanTemplates,
		},
	}
}

// Resolve returns the template for key in the closest supported locale.
func (c *Catalog) Resolve(key string, loc language.Tag) (string, error) {
	_, index, _ := c.matcher.Match(loc)
	table := c.tables[c.tags[index]]
	if template, ok := table[key]; ok {
		return template, nil
	}
	// Locale-specific tables may lag behind English.
	if template, ok := c.tables[language.English][key]; ok {
		return template, nil
	}
	return "", errors.Wrapf(ErrMissingKey, "key %q", key)
}

// Render fills the numbered placeholders of a template with args.
// Placeholders without a matching argument are left in place.
func Render(template string, args ...string) string {
	out := template
	for i, arg := range args {
		out = strings.ReplaceAll(out, fmt.Sprintf("{%d}", i), arg)
	}
	return out
}

var englishTemplates = map[string]string{
	"Reference_REF_CantMatchChoice":                "Unable to find a match for the reference among the profile choices: {0}",
	"BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES":        "This bundle entry declares multiple profiles: {0}. Validation ran against each declared profile",
	"Validation_VAL_Profile_NoMatch":               "Unable to find a matching profile among the declared candidates: {0}",
	"This_element_does_not_match_any_known_slice_": "This element does not match any known slice defined in the profile {0}",

	"Resource_Parse_Failure":         "Unable to parse resource: {0}",
	"Resource_Missing_Type":          "Resource has no resourceType element",
	"Resource_Invalid_Id":            "Resource id '{0}' is not a valid FHIR id",
	"Validation_VAL_Profile_Unknown": "Profile reference '{0}' has not been checked because it could not be resolved",
	"Validation_VAL_Profile_Minimum": "{0}: minimum required = {1}, but only found {2}",
	"Terminology_TX_Code_Unknown":    "Unknown code '{0}' in the system '{1}'",
	"Constraint_Failed":              "Constraint failed: {0} ({1})",
	"Bundle_Entry_Missing_Resource":  "Bundle entry {0} has no resource",
}

var germanTemplates = map[string]string{
	"Reference_REF_CantMatchChoice":                "Keine Übereinstimmung für die Referenz unter den Profilkandidaten gefunden: {0}",
	"BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES":        "Dieser Bundle-Eintrag deklariert mehrere Profile: {0}. Die Validierung lief gegen jedes deklarierte Profil",
	"Validation_VAL_Profile_NoMatch":               "Kein passendes Profil unter den deklarierten Kandidaten gefunden: {0}",
	"This_element_does_not_match_any_known_slice_": "Dieses Element entspricht keinem bekannten Slice des Profils {0}",

	"Resource_Parse_Failure":         "Ressource konnte nicht geparst werden: {0}",
	"Resource_Missing_Type":          "Ressource hat kein resourceType-Element",
	"Resource_Invalid_Id":            "Ressourcen-Id '{0}' ist keine gültige FHIR-Id",
	"Validation_VAL_Profile_Unknown": "Profilreferenz '{0}' wurde nicht geprüft, da sie nicht aufgelöst werden konnte",
	"Validation_VAL_Profile_Minimum": "{0}: mindestens erforderlich = {1}, aber nur {2} gefunden",
	"Terminology_TX_Code_Unknown":    "Unbekannter Code '{0}' im System '{1}'",
	"Constraint_Failed":              "Bedingung verletzt: {0} ({1})",
	"Bundle_Entry_Missing_Resource":  "Bundle-Eintrag {0} enthält keine Ressource",
}
