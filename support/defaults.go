package support

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultProfileSupport serves built-in baseline definitions for the base
// specification. It answers only when the pre-populated provider had no
// answer. Lookup indexes are built lazily on first use; the pipeline's
// warm-up call primes them so the first real caller pays no cold start.
type DefaultProfileSupport struct {
	noAnswer
	set *ProfileSet

	indexOnce sync.Once
	byType    map[string]*StructureDefinition
	primed    atomic.Bool
}

// NewDefaultProfileSupport creates the provider over the built-in base
// definitions.
func NewDefaultProfileSupport(set *ProfileSet) *DefaultProfileSupport {
	if set == nil {
		set = NewProfileSet()
	}
	return &DefaultProfileSupport{set: set}
}

// Kind implements Provider.
func (s *DefaultProfileSupport) Kind() ProviderKind { return KindDefaultProfiles }

// buildIndex indexes base definitions by resource type. Only the canonical
// base definition for a type is indexed, never a derived profile.
func (s *DefaultProfileSupport) buildIndex() {
	s.byType = make(map[string]*StructureDefinition, len(s.set.StructureDefinitions))
	for url, sd := range s.set.StructureDefinitions {
		if sd.Type != "" && url == baseDefinitionURL(sd.Type) {
			s.byType[sd.Type] = sd
		}
	}
	s.primed.Store(true)
}

func baseDefinitionURL(typeName string) string {
	return "http://hl7.org/fhir/StructureDefinition/" + typeName
}

// FetchStructureDefinition implements StructureDefinitionFetcher.
func (s *DefaultProfileSupport) FetchStructureDefinition(ctx context.Context, url string) (*StructureDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.indexOnce.Do(s.buildIndex)
	if sd, ok := s.set.StructureDefinitions[StripVersion(url)]; ok {
		return sd, nil
	}
	return nil, ErrNotFound
}

// FetchStructureDefinitionByType resolves the base definition for a
// resource type, e.g. "Observation".
func (s *DefaultProfileSupport) FetchStructureDefinitionByType(ctx context.Context, resourceType string) (*StructureDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.indexOnce.Do(s.buildIndex)
	if sd, ok := s.byType[resourceType]; ok {
		return sd, nil
	}
	if sd, ok := s.set.StructureDefinitions[baseDefinitionURL(resourceType)]; ok {
		return sd, nil
	}
	return nil, ErrNotFound
}

// FetchValueSet implements ValueSetFetcher.
func (s *DefaultProfileSupport) FetchValueSet(ctx context.Context, url string) (*ValueSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.indexOnce.Do(s.buildIndex)
	if vs, ok := s.set.ValueSets[StripVersion(url)]; ok {
		return vs, nil
	}
	return nil, ErrNotFound
}

// FetchCodeSystem implements CodeSystemFetcher.
func (s *DefaultProfileSupport) FetchCodeSystem(ctx context.Context, url string) (*CodeSystem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.indexOnce.Do(s.buildIndex)
	if cs, ok := s.set.CodeSystems[StripVersion(url)]; ok {
		return cs, nil
	}
	return nil, ErrNotFound
}

// Primed reports whether the lazy indexes have been built. Used by tests
// and by the warm-up path to verify cache priming took place.
func (s *DefaultProfileSupport) Primed() bool {
	return s.primed.Load()
}

var _ Provider = (*DefaultProfileSupport)(nil)
