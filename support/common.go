package support

import (
	"context"
	"fmt"
)

// Canonical URLs of the universally recognized vocabularies served by
// CommonCodeSystemsSupport.
const (
	UCUMSystem      = "http://unitsofmeasure.org"
	BCP47System     = "urn:ietf:bcp:47"
	ISO3166System   = "urn:iso:std:iso:3166"
	ISO4217System   = "urn:iso:std:iso:4217"
	MimeTypesSystem = "urn:ietf:bcp:13"
)

// CommonCodeSystemsSupport resolves a small set of universally recognized
// vocabularies without requiring them to be pre-loaded: UCUM units,
// BCP 47 language tags, ISO 3166 country codes, ISO 4217 currencies and
// MIME types. The tables hold the codes that occur in practice in
// clinical records, not the complete standards.
type CommonCodeSystemsSupport struct {
	noAnswer
	systems map[string]map[string]string
}

// NewCommonCodeSystemsSupport creates the provider with its built-in
// vocabulary tables.
func NewCommonCodeSystemsSupport() *CommonCodeSystemsSupport {
	return &CommonCodeSystemsSupport{systems: commonSystems()}
}

// Kind implements Provider.
func (s *CommonCodeSystemsSupport) Kind() ProviderKind { return KindCommonCodeSystems }

// FetchCodeSystem serves the built-in vocabularies as CodeSystem resources.
func (s *CommonCodeSystemsSupport) FetchCodeSystem(ctx context.Context, url string) (*CodeSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	concepts, ok := s.systems[StripVersion(url)]
	if !ok {
		return nil, ErrNotFound
	}
	return &CodeSystem{URL: StripVersion(url), Concepts: concepts}, nil
}

// ValidateCode answers membership questions for the built-in vocabularies
// only; anything else is passed on.
func (s *CommonCodeSystemsSupport) ValidateCode(ctx context.Context, system, code, _ string) (*ValidateCodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	concepts, ok := s.systems[system]
	if !ok {
		return nil, ErrNotSupported
	}
	if display, found := concepts[code]; found {
		return &ValidateCodeResult{Valid: true, Display: display, Code: code, System: system}, nil
	}
	return &ValidateCodeResult{
		Valid:   false,
		Message: fmt.Sprintf("code '%s' not found in %s", code, system),
		Code:    code,
		System:  system,
	}, nil
}

func commonSystems() map[string]map[string]string {
	return map[string]map[string]string{
		UCUMSystem: {
			"1":       "unity",
			"%":       "percent",
			"s":       "second",
			"min":     "minute",
			"h":       "hour",
			"d":       "day",
			"wk":      "week",
			"mo":      "month",
			"a":       "year",
			"g":       "gram",
			"kg":      "kilogram",
			"mg":      "milligram",
			"ug":      "microgram",
			"L":       "liter",
			"dL":      "deciliter",
			"mL":      "milliliter",
			"mm":      "millimeter",
			"cm":      "centimeter",
			"m":       "meter",
			"Cel":     "degree Celsius",
			"mm[Hg]":  "millimeter of mercury",
			"/min":    "per minute",
			"/uL":     "per microliter",
			"10*9/L":  "billion per liter",
			"10*12/L": "trillion per liter",
			"mmol/L":  "millimole per liter",
			"mg/dL":   "milligram per deciliter",
			"g/dL":    "gram per deciliter",
			"U/L":     "enzyme unit per liter",
			"kg/m2":   "kilogram per square meter",
		},
		BCP47System: {
			"en":    "English",
			"en-US": "English (United States)",
			"en-GB": "English (Great Britain)",
			"de":    "German",
			"de-DE": "German (Germany)",
			"de-AT": "German (Austria)",
			"de-CH": "German (Switzerland)",
			"fr":    "French",
			"es":    "Spanish",
			"it":    "Italian",
			"nl":    "Dutch",
			"pl":    "Polish",
			"pt":    "Portuguese",
			"ru":    "Russian",
			"tr":    "Turkish",
			"ar":    "Arabic",
			"zh":    "Chinese",
		},
		ISO3166System: {
			"AT": "Austria",
			"AU": "Australia",
			"BE": "Belgium",
			"BR": "Brazil",
			"CA": "Canada",
			"CH": "Switzerland",
			"CN": "China",
			"CZ": "Czechia",
			"DE": "Germany",
			"DK": "Denmark",
			"ES": "Spain",
			"FI": "Finland",
			"FR": "France",
			"GB": "United Kingdom",
			"GR": "Greece",
			"HU": "Hungary",
			"IE": "Ireland",
			"IT": "Italy",
			"JP": "Japan",
			"LU": "Luxembourg",
			"NL": "Netherlands",
			"NO": "Norway",
			"PL": "Poland",
			"PT": "Portugal",
			"SE": "Sweden",
			"TR": "Turkey",
			"US": "United States of America",
		},
		ISO4217System: {
			"EUR": "Euro",
			"USD": "US Dollar",
			"GBP": "Pound Sterling",
			"CHF": "Swiss Franc",
			"JPY": "Yen",
			"SEK": "Swedish Krona",
			"NOK": "Norwegian Krone",
			"DKK": "Danish Krone",
			"PLN": "Zloty",
			"CZK": "Czech Koruna",
		},
		MimeTypesSystem: {
			"application/json":      "JSON",
			"application/fhir+json": "FHIR JSON",
			"application/xml":       "XML",
			"application/fhir+xml":  "FHIR XML",
			"application/pdf":       "PDF",
			"text/plain":            "plain text",
			"text/html":             "HTML",
			"image/png":             "PNG image",
			"image/jpeg":            "JPEG image",
		},
	}
}

var _ Provider = (*CommonCodeSystemsSupport)(nil)
