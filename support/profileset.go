package support

import "strings"

// ProfileSet holds parsed validation resources keyed by canonical URL.
// It is the unit handed from the profile loader to the chain providers.
type ProfileSet struct {
	StructureDefinitions map[string]*StructureDefinition
	ValueSets            map[string]*ValueSet
	CodeSystems          map[string]*CodeSystem
	Questionnaires       map[string]*Questionnaire
}

// NewProfileSet creates an empty ProfileSet.
func NewProfileSet() *ProfileSet {
	return &ProfileSet{
		StructureDefinitions: make(map[string]*StructureDefinition),
		ValueSets:            make(map[string]*ValueSet),
		CodeSystems:          make(map[string]*CodeSystem),
		Questionnaires:       make(map[string]*Questionnaire),
	}
}

// AddStructureDefinition indexes a profile by its canonical URL.
// Definitions without a URL are ignored; they cannot be resolved anyway.
func (p *ProfileSet) AddStructureDefinition(sd *StructureDefinition) {
	if sd != nil && sd.URL != "" {
		p.StructureDefinitions[sd.URL] = sd
	}
}

// AddValueSet indexes a value set by its canonical URL.
func (p *ProfileSet) AddValueSet(vs *ValueSet) {
	if vs != nil && vs.URL != "" {
		p.ValueSets[vs.URL] = vs
	}
}

// AddCodeSystem indexes a code system by its canonical URL.
func (p *ProfileSet) AddCodeSystem(cs *CodeSystem) {
	if cs != nil && cs.URL != "" {
		p.CodeSystems[cs.URL] = cs
	}
}

// AddQuestionnaire indexes a questionnaire by its canonical URL.
func (p *ProfileSet) AddQuestionnaire(q *Questionnaire) {
	if q != nil && q.URL != "" {
		p.Questionnaires[q.URL] = q
	}
}

// Count returns the total number of indexed resources.
func (p *ProfileSet) Count() int {
	return len(p.StructureDefinitions) + len(p.ValueSets) + len(p.CodeSystems) + len(p.Questionnaires)
}

// StripVersion removes a "|version" suffix from a canonical URL, e.g.
// "http://hl7.org/fhir/ValueSet/observation-status|4.0.1".
func StripVersion(url string) string {
	if idx := strings.LastIndex(url, "|"); idx != -1 {
		return url[:idx]
	}
	return url
}
