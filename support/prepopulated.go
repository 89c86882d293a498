package support

import "context"

// PrePopulatedSupport serves the explicitly configured, locally curated
// definitions. It sits first in the chain: operator-supplied profiles are
// authoritative and must never be shadowed by built-in defaults.
type PrePopulatedSupport struct {
	noAnswer
	set *ProfileSet
}

// NewPrePopulatedSupport creates the provider over an operator profile set.
func NewPrePopulatedSupport(set *ProfileSet) *PrePopulatedSupport {
	if set == nil {
		set = NewProfileSet()
	}
	return &PrePopulatedSupport{set: set}
}

// Kind implements Provider.
func (s *PrePopulatedSupport) Kind() ProviderKind { return KindPrePopulated }

// FetchStructureDefinition implements StructureDefinitionFetcher.
func (s *PrePopulatedSupport) FetchStructureDefinition(ctx context.Context, url string) (*StructureDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sd, ok := s.set.StructureDefinitions[StripVersion(url)]; ok {
		return sd, nil
	}
	return nil, ErrNotFound
}

// FetchValueSet implements ValueSetFetcher.
func (s *PrePopulatedSupport) FetchValueSet(ctx context.Context, url string) (*ValueSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if vs, ok := s.set.ValueSets[StripVersion(url)]; ok {
		return vs, nil
	}
	return nil, ErrNotFound
}

// FetchCodeSystem implements CodeSystemFetcher.
func (s *PrePopulatedSupport) FetchCodeSystem(ctx context.Context, url string) (*CodeSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cs, ok := s.set.CodeSystems[StripVersion(url)]; ok {
		return cs, nil
	}
	return nil, ErrNotFound
}

// FetchQuestionnaire implements QuestionnaireFetcher.
func (s *PrePopulatedSupport) FetchQuestionnaire(ctx context.Context, url string) (*Questionnaire, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q, ok := s.set.Questionnaires[StripVersion(url)]; ok {
		return q, nil
	}
	return nil, ErrNotFound
}

// Count returns the number of curated resources served by this provider.
func (s *PrePopulatedSupport) Count() int { return s.set.Count() }

var _ Provider = (*PrePopulatedSupport)(nil)
