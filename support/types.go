// Package support composes the ordered chain of validation support
// providers consulted when the validation engine resolves profile,
// value set, code system, and questionnaire references.
// Each interface is small, following Go's small-interface idiom.
package support

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a provider does not know a resource.
// The chain treats it as "ask the next provider".
var ErrNotFound = errors.New("resource not found")

// ErrNotSupported is returned when a provider cannot answer a kind of
// question at all. The chain treats it like ErrNotFound.
var ErrNotSupported = errors.New("operation not supported")

// StructureDefinition is the internal representation of a FHIR profile.
type StructureDefinition struct {
	URL            string
	Name           string
	Type           string
	Kind           string
	Abstract       bool
	BaseDefinition string
	FHIRVersion    string
	Snapshot       []ElementDefinition
	Differential   []ElementDefinition
}

// HasSnapshot reports whether the profile carries a precomputed snapshot.
func (sd *StructureDefinition) HasSnapshot() bool {
	return len(sd.Snapshot) > 0
}

// ElementDefinition describes one element of a profile.
type ElementDefinition struct {
	ID          string
	Path        string
	SliceName   string
	Min         int
	Max         string
	Types       []TypeRef
	Binding     *Binding
	Constraints []Constraint
}

// TypeRef is a type reference in an ElementDefinition.
type TypeRef struct {
	Code          string
	Profile       []string
	TargetProfile []string
}

// Binding is a terminology binding on an element.
type Binding struct {
	Strength    string
	ValueSet    string
	Description string
}

// Constraint is a FHIRPath invariant attached to an element.
type Constraint struct {
	Key        string
	Severity   string
	Human      string
	Expression string
}

// ValueSet is the internal representation of a FHIR ValueSet.
// Codes are indexed system -> code -> display for membership checks;
// Includes lists whole-system inclusions without enumerated concepts.
type ValueSet struct {
	URL      string
	Codes    map[string]map[string]string
	Includes []string
}

// Contains reports whether the value set explicitly enumerates the code.
// A code with an unspecified system matches any enumerated system.
func (vs *ValueSet) Contains(system, code string) bool {
	if system != "" {
		codes, ok := vs.Codes[system]
		if !ok {
			return false
		}
		_, ok = codes[code]
		return ok
	}
	for _, codes := range vs.Codes {
		if _, ok := codes[code]; ok {
			return true
		}
	}
	return false
}

// CodeSystem is the internal representation of a FHIR CodeSystem.
type CodeSystem struct {
	URL      string
	Concepts map[string]string // code -> display
}

// Questionnaire is kept in its raw parsed form; the engine only needs to
// resolve it by canonical URL.
type Questionnaire struct {
	URL      string
	Resource map[string]any
}

// ValidateCodeResult is the answer to a terminology question.
type ValidateCodeResult struct {
	Valid   bool
	Message string
	Display string
	Code    string
	System  string
}

// --- Provider capabilities ---

// StructureDefinitionFetcher fetches profiles by canonical URL.
type StructureDefinitionFetcher interface {
	FetchStructureDefinition(ctx context.Context, url string) (*StructureDefinition, error)
}

// ValueSetFetcher fetches value sets by canonical URL.
type ValueSetFetcher interface {
	FetchValueSet(ctx context.Context, url string) (*ValueSet, error)
}

// CodeSystemFetcher fetches code systems by canonical URL.
type CodeSystemFetcher interface {
	FetchCodeSystem(ctx context.Context, url string) (*CodeSystem, error)
}

// QuestionnaireFetcher fetches questionnaires by canonical URL.
type QuestionnaireFetcher interface {
	FetchQuestionnaire(ctx context.Context, url string) (*Questionnaire, error)
}

// CodeValidator answers code membership questions.
type CodeValidator interface {
	ValidateCode(ctx context.Context, system, code, valueSetURL string) (*ValidateCodeResult, error)
}

// SnapshotGenerator derives a snapshot for a differential-only profile.
type SnapshotGenerator interface {
	GenerateSnapshot(ctx context.Context, profile *StructureDefinition) (*StructureDefinition, error)
}

// Provider is one member of the validation support chain. A provider
// answers only what it knows and returns ErrNotFound or ErrNotSupported
// to pass a question on to the next provider.
type Provider interface {
	Kind() ProviderKind
	StructureDefinitionFetcher
	ValueSetFetcher
	CodeSystemFetcher
	QuestionnaireFetcher
	CodeValidator
	SnapshotGenerator
}

// noAnswer provides pass-on defaults for providers that only implement a
// subset of the chain capabilities.
type noAnswer struct{}

func (noAnswer) FetchStructureDefinition(context.Context, string) (*StructureDefinition, error) {
	return nil, ErrNotFound
}

func (noAnswer) FetchValueSet(context.Context, string) (*ValueSet, error) {
	return nil, ErrNotFound
}

func (noAnswer) FetchCodeSystem(context.Context, string) (*CodeSystem, error) {
	return nil, ErrNotFound
}

func (noAnswer) FetchQuestionnaire(context.Context, string) (*Questionnaire, error) {
	return nil, ErrNotFound
}

func (noAnswer) ValidateCode(context.Context, string, string, string) (*ValidateCodeResult, error) {
	return nil, ErrNotSupported
}

func (noAnswer) GenerateSnapshot(context.Context, *StructureDefinition) (*StructureDefinition, error) {
	return nil, ErrNotSupported
}
