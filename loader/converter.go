package loader

import (
	"encoding/json"

	"github.com/gofhir/fhir/r4"

	"github.com/Boereck/DEMIS-validation-service/support"
)

// R4Converter converts R4 FHIR conformance resources into the internal
// models used by the support chain.
type R4Converter struct{}

// NewR4Converter creates a new R4 converter.
func NewR4Converter() *R4Converter {
	return &R4Converter{}
}

// ConvertStructureDefinition converts an r4.StructureDefinition into the
// internal profile model.
func (c *R4Converter) ConvertStructureDefinition(sd *r4.StructureDefinition) *support.StructureDefinition {
	if sd == nil {
		return nil
	}

	result := &support.StructureDefinition{
		URL:            derefString(sd.Url),
		Name:           derefString(sd.Name),
		Type:           derefString(sd.Type),
		Kind:           derefKind(sd.Kind),
		Abstract:       derefBool(sd.Abstract),
		BaseDefinition: derefString(sd.BaseDefinition),
		FHIRVersion:    derefFHIRVersion(sd.FhirVersion),
	}
	if sd.Snapshot != nil {
		result.Snapshot = c.convertElements(sd.Snapshot.Element)
	}
	if sd.Differential != nil {
		result.Differential = c.convertElements(sd.Differential.Element)
	}
	return result
}

func (c *R4Converter) convertElements(elements []r4.ElementDefinition) []support.ElementDefinition {
	if len(elements) == 0 {
		return nil
	}
	result := make([]support.ElementDefinition, 0, len(elements))
	for i := range elements {
		ed := &elements[i]
		result = append(result, support.ElementDefinition{
			ID:          derefString(ed.Id),
			Path:        derefString(ed.Path),
			SliceName:   derefString(ed.SliceName),
			Min:         derefMin(ed.Min),
			Max:         derefString(ed.Max),
			Types:       c.convertTypes(ed.Type),
			Binding:     c.convertBinding(ed.Binding),
			Constraints: c.convertConstraints(ed.Constraint),
		})
	}
	return result
}

func (c *R4Converter) convertTypes(types []r4.ElementDefinitionType) []support.TypeRef {
	if len(types) == 0 {
		return nil
	}
	result := make([]support.TypeRef, 0, len(types))
	for i := range types {
		t := &types[i]
		result = append(result, support.TypeRef{
			Code:          derefString(t.Code),
			Profile:       t.Profile,
			TargetProfile: t.TargetProfile,
		})
	}
	return result
}

func (c *R4Converter) convertBinding(binding *r4.ElementDefinitionBinding) *support.Binding {
	if binding == nil {
		return nil
	}
	strength := ""
	if binding.Strength != nil {
		strength = string(*binding.Strength)
	}
	return &support.Binding{
		Strength:    strength,
		ValueSet:    derefString(binding.ValueSet),
		Description: derefString(binding.Description),
	}
}

func (c *R4Converter) convertConstraints(constraints []r4.ElementDefinitionConstraint) []support.Constraint {
	if len(constraints) == 0 {
		return nil
	}
	result := make([]support.Constraint, 0, len(constraints))
	for i := range constraints {
		con := &constraints[i]
		severity := ""
		if con.Severity != nil {
			severity = string(*con.Severity)
		}
		result = append(result, support.Constraint{
			Key:        derefString(con.Key),
			Severity:   severity,
			Human:      derefString(con.Human),
			Expression: derefString(con.Expression),
		})
	}
	return result
}

// ConvertValueSet converts an r4.ValueSet, indexing its expansion when
// present and otherwise its composition. Whole-system includes without
// enumerated concepts are recorded for code-system fallback lookups.
func (c *R4Converter) ConvertValueSet(vs *r4.ValueSet) *support.ValueSet {
	if vs == nil {
		return nil
	}
	result := &support.ValueSet{
		URL:   derefString(vs.Url),
		Codes: make(map[string]map[string]string),
	}
	if vs.Expansion != nil {
		c.indexExpansion(result, vs.Expansion.Contains)
	}
	if vs.Compose != nil {
		for i := range vs.Compose.Include {
			inc := &vs.Compose.Include[i]
			system := derefString(inc.System)
			if len(inc.Concept) == 0 {
				if system != "" {
					result.Includes = append(result.Includes, system)
				}
				continue
			}
			for j := range inc.Concept {
				concept := &inc.Concept[j]
				addCode(result.Codes, system, derefString(concept.Code), derefString(concept.Display))
			}
		}
	}
	return result
}

func (c *R4Converter) indexExpansion(vs *support.ValueSet, contains []r4.ValueSetExpansionContains) {
	for i := range contains {
		entry := &contains[i]
		addCode(vs.Codes, derefString(entry.System), derefString(entry.Code), derefString(entry.Display))
		if len(entry.Contains) > 0 {
			c.indexExpansion(vs, entry.Contains)
		}
	}
}

// ConvertCodeSystem converts an r4.CodeSystem, flattening nested concepts.
func (c *R4Converter) ConvertCodeSystem(cs *r4.CodeSystem) *support.CodeSystem {
	if cs == nil {
		return nil
	}
	result := &support.CodeSystem{
		URL:      derefString(cs.Url),
		Concepts: make(map[string]string),
	}
	c.indexConcepts(result, cs.Concept)
	return result
}

func (c *R4Converter) indexConcepts(cs *support.CodeSystem, concepts []r4.CodeSystemConcept) {
	for i := range concepts {
		concept := &concepts[i]
		if code := derefString(concept.Code); code != "" {
			cs.Concepts[code] = derefString(concept.Display)
		}
		if len(concept.Concept) > 0 {
			c.indexConcepts(cs, concept.Concept)
		}
	}
}

// ConvertQuestionnaire keeps the questionnaire in its raw parsed form;
// only the canonical URL is lifted out for indexing.
func (c *R4Converter) ConvertQuestionnaire(data []byte) (*support.Questionnaire, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	url, _ := raw["url"].(string)
	return &support.Questionnaire{URL: url, Resource: raw}, nil
}

func addCode(codes map[string]map[string]string, system, code, display string) {
	if code == "" {
		return
	}
	byCode, ok := codes[system]
	if !ok {
		byCode = make(map[string]string)
		codes[system] = byCode
	}
	byCode[code] = display
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefMin(v *uint32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

func derefKind(kind *r4.StructureDefinitionKind) string {
	if kind == nil {
		return ""
	}
	return string(*kind)
}

func derefFHIRVersion(version *r4.FHIRVersion) string {
	if version == nil {
		return ""
	}
	return string(*version)
}
