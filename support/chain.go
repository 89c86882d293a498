package support

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ProviderKind identifies a provider's role in the chain.
type ProviderKind string

// The five provider kinds, in chain order.
const (
	KindPrePopulated        ProviderKind = "pre-populated"
	KindDefaultProfiles     ProviderKind = "default-profiles"
	KindInMemoryTerminology ProviderKind = "in-memory-terminology"
	KindCommonCodeSystems   ProviderKind = "common-code-systems"
	KindSnapshotGenerator   ProviderKind = "snapshot-generator"
)

// chainOrder is the fixed precedence order. Operator-supplied definitions
// must never be shadowed by built-in defaults, and every later provider is
// designed as a fallback for the ones before it.
var chainOrder = []ProviderKind{
	KindPrePopulated,
	KindDefaultProfiles,
	KindInMemoryTerminology,
	KindCommonCodeSystems,
	KindSnapshotGenerator,
}

// Chain is the ordered sequence of validation support providers. The first
// provider that answers a lookup wins. A Chain is immutable after
// construction and safe for concurrent use.
type Chain struct {
	providers []Provider
}

// NewChain builds a chain from the given providers. It enforces the chain
// invariants: exactly one provider per kind, in the fixed precedence order.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) != len(chainOrder) {
		return nil, errors.Newf("support chain requires %d providers, got %d", len(chainOrder), len(providers))
	}
	for i, p := range providers {
		if p == nil {
			return nil, errors.Newf("support chain provider %d is nil", i)
		}
		if p.Kind() != chainOrder[i] {
			return nil, errors.Newf("support chain position %d must be %q, got %q", i, chainOrder[i], p.Kind())
		}
	}

	c := &Chain{providers: providers}
	for _, p := range providers {
		if cb, ok := p.(chainBound); ok {
			cb.bind(c)
		}
	}
	return c, nil
}

// Compose builds the standard five-provider chain over the given
// operator-supplied profiles and built-in default definitions.
func Compose(profiles, defaults *ProfileSet) (*Chain, error) {
	if profiles == nil {
		profiles = NewProfileSet()
	}
	if defaults == nil {
		defaults = NewProfileSet()
	}
	return NewChain(
		NewPrePopulatedSupport(profiles),
		NewDefaultProfileSupport(defaults),
		NewInMemoryTerminologySupport(),
		NewCommonCodeSystemsSupport(),
		NewSnapshotGeneratingSupport(),
	)
}

// chainBound is implemented by providers that resolve through the chain
// they belong to (terminology fallback, snapshot generation).
type chainBound interface {
	bind(*Chain)
}

// Providers returns the chain members in precedence order.
func (c *Chain) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// FetchStructureDefinition asks each provider in order until one answers.
func (c *Chain) FetchStructureDefinition(ctx context.Context, url string) (*StructureDefinition, error) {
	for _, p := range c.providers {
		sd, err := p.FetchStructureDefinition(ctx, url)
		if err == nil && sd != nil {
			return sd, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// structureDefinitionByTypeFetcher is an optional provider capability for
// resolving the base definition of a resource type by name.
type structureDefinitionByTypeFetcher interface {
	FetchStructureDefinitionByType(ctx context.Context, resourceType string) (*StructureDefinition, error)
}

// FetchStructureDefinitionByType resolves the base definition for a
// resource type, e.g. "Observation". Providers without by-type lookup are
// asked for the canonical hl7.org URL instead.
func (c *Chain) FetchStructureDefinitionByType(ctx context.Context, resourceType string) (*StructureDefinition, error) {
	url := "http://hl7.org/fhir/StructureDefinition/" + resourceType
	for _, p := range c.providers {
		var (
			sd  *StructureDefinition
			err error
		)
		if byType, ok := p.(structureDefinitionByTypeFetcher); ok {
			sd, err = byType.FetchStructureDefinitionByType(ctx, resourceType)
		} else {
			sd, err = p.FetchStructureDefinition(ctx, url)
		}
		if err == nil && sd != nil {
			return sd, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// FetchValueSet asks each provider in order until one answers.
func (c *Chain) FetchValueSet(ctx context.Context, url string) (*ValueSet, error) {
	for _, p := range c.providers {
		vs, err := p.FetchValueSet(ctx, url)
		if err == nil && vs != nil {
			return vs, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// FetchCodeSystem asks each provider in order until one answers.
func (c *Chain) FetchCodeSystem(ctx context.Context, url string) (*CodeSystem, error) {
	for _, p := range c.providers {
		cs, err := p.FetchCodeSystem(ctx, url)
		if err == nil && cs != nil {
			return cs, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// FetchQuestionnaire asks each provider in order until one answers.
func (c *Chain) FetchQuestionnaire(ctx context.Context, url string) (*Questionnaire, error) {
	for _, p := range c.providers {
		q, err := p.FetchQuestionnaire(ctx, url)
		if err == nil && q != nil {
			return q, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// ValidateCode asks each provider in order until one can answer the
// terminology question. An answer of "invalid" is still an answer; only
// ErrNotFound/ErrNotSupported pass the question on.
func (c *Chain) ValidateCode(ctx context.Context, system, code, valueSetURL string) (*ValidateCodeResult, error) {
	for _, p := range c.providers {
		result, err := p.ValidateCode(ctx, system, code, valueSetURL)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotSupported
}

// GenerateSnapshot asks each provider in order to derive a snapshot for a
// differential-only profile.
func (c *Chain) GenerateSnapshot(ctx context.Context, profile *StructureDefinition) (*StructureDefinition, error) {
	for _, p := range c.providers {
		sd, err := p.GenerateSnapshot(ctx, profile)
		if err == nil && sd != nil {
			return sd, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotSupported) {
			return nil, err
		}
	}
	return nil, ErrNotSupported
}
