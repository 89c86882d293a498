// Package validationservice validates FHIR R4 notification documents and
// post-processes the raw engine findings before they are reported.
//
// Post-processing has two independent steps. Known-noise findings are
// suppressed by matching their localized message against a set of prefixes
// derived from the message catalog, and the remaining findings are held
// against a configurable minimum severity. A document is valid when no
// reported finding is an error or worse.
//
// # Quick Start
//
//	import (
//	    vs "github.com/Boereck/DEMIS-validation-service"
//	    "github.com/Boereck/DEMIS-validation-service/engine"
//	)
//
//	pipeline, err := vs.New(profiles, engine.Factory(),
//	    vs.WithMinSeverity("error"),
//	    vs.WithLocale(language.German),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := pipeline.WarmUp(ctx); err != nil {
//	    log.Warn().Err(err).Msg("warm-up failed")
//	}
//
//	outcome, err := pipeline.Validate(ctx, documentJSON)
//	if !outcome.Valid() {
//	    for _, f := range outcome.Findings() {
//	        fmt.Println(f)
//	    }
//	}
//
// # Architecture
//
// Profile, value set, code system and questionnaire lookups go through an
// ordered chain of five support providers (package support): operator
// supplied profiles first, then built-in base definitions, an in-memory
// terminology fallback, universally known code systems, and finally a
// snapshot generator for differential-only profiles. The first provider
// that answers wins.
package validationservice
