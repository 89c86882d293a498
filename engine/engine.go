// Package engine implements the built-in structural validation engine.
// It checks documents against the profiles resolved through the support
// chain: required elements, terminology bindings and FHIRPath invariants,
// with bundle entries validated recursively.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"

	validationservice "github.com/Boereck/DEMIS-validation-service"
	"github.com/Boereck/DEMIS-validation-service/catalog"
	"github.com/Boereck/DEMIS-validation-service/support"
)

// idPattern is the FHIR id primitive: letters, digits, hyphen and dot,
// at most 64 characters.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9\-\.]{1,64}$`)

// Structural validates documents against the profiles, terminology and
// invariants served by its support chain. It is safe for concurrent use.
type Structural struct {
	chain    *support.Chain
	locale   language.Tag
	catalog  *catalog.Catalog
	fhirpath *fhirPathEvaluator
}

// New creates a structural engine over a composed support chain.
func New(chain *support.Chain, loc language.Tag, cat *catalog.Catalog) (*Structural, error) {
	if chain == nil {
		return nil, errors.New("support chain is required")
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Structural{
		chain:    chain,
		locale:   loc,
		catalog:  cat,
		fhirpath: newFHIRPathEvaluator(),
	}, nil
}

// Factory adapts New to the pipeline's engine factory signature.
func Factory() validationservice.EngineFactory {
	return func(chain *support.Chain, loc language.Tag, cat *catalog.Catalog) (validationservice.Engine, error) {
		return New(chain, loc, cat)
	}
}

// Validate implements validationservice.Engine.
func (e *Structural) Validate(ctx context.Context, document []byte) ([]validationservice.Finding, error) {
	var raw map[string]any
	if err := json.Unmarshal(document, &raw); err != nil {
		return []validationservice.Finding{{
			Severity: validationservice.SeverityFatal,
			Message:  e.msg("Resource_Parse_Failure", err.Error()),
			Location: "(document)",
		}}, nil
	}
	return e.validateResource(ctx, raw, document, "")
}

func (e *Structural) validateResource(ctx context.Context, raw map[string]any, document []byte, location string) ([]validationservice.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resourceType, ok := raw["resourceType"].(string)
	if !ok || resourceType == "" {
		return []validationservice.Finding{{
			Severity: validationservice.SeverityFatal,
			Message:  e.msg("Resource_Missing_Type"),
			Location: e.at(location, "resourceType"),
		}}, nil
	}

	var findings []validationservice.Finding
	if id, ok := raw["id"].(string); ok && !idPattern.MatchString(id) {
		findings = append(findings, validationservice.Finding{
			Severity: validationservice.SeverityError,
			Message:  e.msg("Resource_Invalid_Id", id),
			Location: e.at(location, resourceType+".id"),
		})
	}

	targets, profileFindings, err := e.resolveProfiles(ctx, raw, resourceType, location)
	if err != nil {
		return nil, err
	}
	findings = append(findings, profileFindings...)

	for _, sd := range targets {
		sdFindings, err := e.validateAgainstProfile(ctx, raw, document, sd, location)
		if err != nil {
			return nil, err
		}
		findings = append(findings, sdFindings...)
	}

	if resourceType == "Bundle" {
		entryFindings, err := e.validateBundleEntries(ctx, raw, location)
		if err != nil {
			return nil, err
		}
		findings = append(findings, entryFindings...)
	}
	return findings, nil
}

// resolveProfiles picks the profiles to validate against: the declared
// meta.profile references when present, otherwise the base definition for
// the resource type.
func (e *Structural) resolveProfiles(ctx context.Context, raw map[string]any, resourceType, location string) ([]*support.StructureDefinition, []validationservice.Finding, error) {
	var findings []validationservice.Finding

	declared := declaredProfiles(raw)
	if len(declared) > 1 {
		findings = append(findings, validationservice.Finding{
			Severity: validationservice.SeverityInformation,
			Message:  e.msg("BUNDLE_BUNDLE_ENTRY_MULTIPLE_PROFILES", strings.Join(declared, ", ")),
			Location: e.at(location, resourceType+".meta.profile"),
		})
	}

	var targets []*support.StructureDefinition
	for _, url := range declared {
		sd, err := e.chain.FetchStructureDefinition(ctx, url)
		if err != nil {
			if errors.Is(err, support.ErrNotFound) || errors.Is(err, support.ErrNotSupported) {
				findings = append(findings, validationservice.Finding{
					Severity: validationservice.SeverityError,
					Message:  e.msg("Validation_VAL_Profile_Unknown", url),
					Location: e.at(location, resourceType+".meta.profile"),
				})
				continue
			}
			return nil, nil, err
		}
		targets = append(targets, sd)
	}

	if len(targets) == 0 {
		base, err := e.chain.FetchStructureDefinitionByType(ctx, resourceType)
		if err != nil {
			if errors.Is(err, support.ErrNotFound) || errors.Is(err, support.ErrNotSupported) {
				findings = append(findings, validationservice.Finding{
					Severity: validationservice.SeverityWarning,
					Message:  e.msg("Validation_VAL_Profile_Unknown", resourceType),
					Location: e.at(location, resourceType),
				})
				return nil, findings, nil
			}
			return nil, nil, err
		}
		targets = append(targets, base)
	}
	return targets, findings, nil
}

func (e *Structural) validateAgainstProfile(ctx context.Context, raw map[string]any, document []byte, sd *support.StructureDefinition, location string) ([]validationservice.Finding, error) {
	if !sd.HasSnapshot() {
		generated, err := e.chain.GenerateSnapshot(ctx, sd)
		if err != nil {
			if errors.Is(err, support.ErrNotFound) || errors.Is(err, support.ErrNotSupported) {
				return []validationservice.Finding{{
					Severity: validationservice.SeverityError,
					Message:  e.msg("Validation_VAL_Profile_Unknown", sd.URL),
					Location: e.at(location, sd.Type),
				}}, nil
			}
			return nil, err
		}
		sd = generated
	}

	var findings []validationservice.Finding
	for i := range sd.Snapshot {
		ed := &sd.Snapshot[i]
		switch {
		case ed.Path == sd.Type:
			constraintFindings, err := e.checkConstraints(ed, document, location)
			if err != nil {
				return nil, err
			}
			findings = append(findings, constraintFindings...)
		case isDirectChild(ed.Path, sd.Type):
			field := ed.Path[len(sd.Type)+1:]
			value, present := raw[field]
			if ed.Min > 0 && !present {
				findings = append(findings, validationservice.Finding{
					Severity: validationservice.SeverityError,
					Message:  e.msg("Validation_VAL_Profile_Minimum", e.at(location, ed.Path), fmt.Sprintf("%d", ed.Min), "0"),
					Location: e.at(location, ed.Path),
				})
				continue
			}
			if present {
				bindingFindings, err := e.checkTerminology(ctx, ed, value, location)
				if err != nil {
					return nil, err
				}
				findings = append(findings, bindingFindings...)
			}
		}
	}
	return findings, nil
}

// checkTerminology validates coded values: primitive codes against their
// required binding, and the codings of a CodeableConcept against their
// declared systems.
func (e *Structural) checkTerminology(ctx context.Context, ed *support.ElementDefinition, value any, location string) ([]validationservice.Finding, error) {
	var findings []validationservice.Finding

	if code, ok := value.(string); ok && ed.Binding != nil && ed.Binding.ValueSet != "" {
		result, err := e.chain.ValidateCode(ctx, "", code, ed.Binding.ValueSet)
		if err != nil {
			if errors.Is(err, support.ErrNotFound) || errors.Is(err, support.ErrNotSupported) {
				return nil, nil
			}
			return nil, err
		}
		if !result.Valid {
			findings = append(findings, validationservice.Finding{
				Severity: bindingSeverity(ed.Binding.Strength),
				Message:  e.msg("Terminology_TX_Code_Unknown", code, support.StripVersion(ed.Binding.ValueSet)),
				Location: e.at(location, ed.Path),
			})
		}
		return findings, nil
	}

	concept, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	codings, ok := concept["coding"].([]any)
	if !ok {
		return nil, nil
	}
	for _, c := range codings {
		coding, ok := c.(map[string]any)
		if !ok {
			continue
		}
		system, _ := coding["system"].(string)
		code, _ := coding["code"].(string)
		if system == "" || code == "" {
			continue
		}
		result, err := e.chain.ValidateCode(ctx, system, code, "")
		if err != nil {
			if errors.Is(err, support.ErrNotFound) || errors.Is(err, support.ErrNotSupported) {
				// No authority for this system; stay silent rather than guess.
				continue
			}
			return nil, err
		}
		if !result.Valid {
			findings = append(findings, validationservice.Finding{
				Severity: validationservice.SeverityWarning,
				Message:  e.msg("Terminology_TX_Code_Unknown", code, system),
				Location: e.at(location, ed.Path),
			})
		}
	}
	return findings, nil
}

// checkConstraints evaluates the FHIRPath invariants attached to the
// resource root element. Expressions that fail to compile or evaluate are
// skipped; an engine bug must not fail the document.
func (e *Structural) checkConstraints(ed *support.ElementDefinition, document []byte, location string) ([]validationservice.Finding, error) {
	var findings []validationservice.Finding
	for _, con := range ed.Constraints {
		if con.Expression == "" {
			continue
		}
		ok, err := e.fhirpath.Evaluate(con.Expression, document)
		if err != nil {
			continue
		}
		if !ok {
			findings = append(findings, validationservice.Finding{
				Severity: constraintSeverity(con.Severity),
				Message:  e.msg("Constraint_Failed", con.Key, con.Human),
				Location: e.at(location, ed.Path),
			})
		}
	}
	return findings, nil
}

func (e *Structural) validateBundleEntries(ctx context.Context, raw map[string]any, location string) ([]validationservice.Finding, error) {
	entries, ok := raw["entry"].([]any)
	if !ok {
		return nil, nil
	}

	var findings []validationservice.Finding
	for i, entry := range entries {
		entryLocation := e.at(location, fmt.Sprintf("Bundle.entry[%d]", i))
		em, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		resource, ok := em["resource"].(map[string]any)
		if !ok {
			findings = append(findings, validationservice.Finding{
				Severity: validationservice.SeverityError,
				Message:  e.msg("Bundle_Entry_Missing_Resource", fmt.Sprintf("%d", i)),
				Location: entryLocation,
			})
			continue
		}
		data, err := json.Marshal(resource)
		if err != nil {
			return nil, errors.Wrapf(err, "re-encoding bundle entry %d", i)
		}
		entryFindings, err := e.validateResource(ctx, resource, data, entryLocation)
		if err != nil {
			return nil, err
		}
		findings = append(findings, entryFindings...)
	}
	return findings, nil
}

// msg renders a localized message. A key missing from the catalog falls
// back to the key itself so a catalog gap never hides a finding.
func (e *Structural) msg(key string, args ...string) string {
	template, err := e.catalog.Resolve(key, e.locale)
	if err != nil {
		template = key
	}
	return catalog.Render(template, args...)
}

// at prefixes an element path with the enclosing bundle entry location.
func (e *Structural) at(location, path string) string {
	if location == "" {
		return path
	}
	return location + "." + path
}

func declaredProfiles(raw map[string]any) []string {
	meta, ok := raw["meta"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := meta["profile"].([]any)
	if !ok {
		return nil
	}
	profiles := make([]string, 0, len(list))
	for _, p := range list {
		if url, ok := p.(string); ok && url != "" {
			profiles = append(profiles, url)
		}
	}
	return profiles
}

func isDirectChild(path, root string) bool {
	if len(path) <= len(root)+1 || path[:len(root)] != root || path[len(root)] != '.' {
		return false
	}
	return !strings.Contains(path[len(root)+1:], ".")
}

func bindingSeverity(strength string) validationservice.Severity {
	if strength == "required" {
		return validationservice.SeverityError
	}
	return validationservice.SeverityWarning
}

func constraintSeverity(severity string) validationservice.Severity {
	if severity == "warning" {
		return validationservice.SeverityWarning
	}
	return validationservice.SeverityError
}

var _ validationservice.Engine = (*Structural)(nil)
