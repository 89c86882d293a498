package support

import (
	"context"
	"fmt"
)

// InMemoryTerminologySupport resolves code membership using only the code
// systems and value sets already known to the chain it belongs to. It
// performs no network calls and serves as the terminology fallback after
// the pre-populated and default providers declined to answer.
type InMemoryTerminologySupport struct {
	noAnswer
	chain *Chain
}

// NewInMemoryTerminologySupport creates the provider. It is bound to its
// chain during chain construction.
func NewInMemoryTerminologySupport() *InMemoryTerminologySupport {
	return &InMemoryTerminologySupport{}
}

// Kind implements Provider.
func (s *InMemoryTerminologySupport) Kind() ProviderKind { return KindInMemoryTerminology }

func (s *InMemoryTerminologySupport) bind(c *Chain) { s.chain = c }

// ValidateCode implements CodeValidator. With a value set URL it checks
// membership against the resolved value set, falling back to the backing
// code systems for whole-system includes. Without one it checks the code
// against its code system directly.
func (s *InMemoryTerminologySupport) ValidateCode(ctx context.Context, system, code, valueSetURL string) (*ValidateCodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.chain == nil {
		return nil, ErrNotSupported
	}
	if code == "" {
		return &ValidateCodeResult{Valid: false, Message: "code is empty"}, nil
	}

	if valueSetURL != "" {
		return s.validateAgainstValueSet(ctx, system, code, StripVersion(valueSetURL))
	}
	if system != "" {
		return s.validateAgainstCodeSystem(ctx, system, code)
	}
	return nil, ErrNotSupported
}

func (s *InMemoryTerminologySupport) validateAgainstValueSet(ctx context.Context, system, code, valueSetURL string) (*ValidateCodeResult, error) {
	vs, err := s.chain.FetchValueSet(ctx, valueSetURL)
	if err != nil {
		// Unknown value set: pass the question on instead of guessing.
		return nil, err
	}

	if vs.Contains(system, code) {
		return &ValidateCodeResult{Valid: true, Code: code, System: system}, nil
	}

	// Whole-system includes carry no enumerated codes; consult the chain's
	// code systems for those.
	for _, included := range vs.Includes {
		if system != "" && system != included {
			continue
		}
		cs, err := s.chain.FetchCodeSystem(ctx, included)
		if err != nil {
			continue
		}
		if display, ok := cs.Concepts[code]; ok {
			return &ValidateCodeResult{Valid: true, Display: display, Code: code, System: included}, nil
		}
	}

	return &ValidateCodeResult{
		Valid:   false,
		Message: fmt.Sprintf("code '%s' not found in value set '%s'", code, valueSetURL),
		Code:    code,
		System:  system,
	}, nil
}

func (s *InMemoryTerminologySupport) validateAgainstCodeSystem(ctx context.Context, system, code string) (*ValidateCodeResult, error) {
	cs, err := s.chain.FetchCodeSystem(ctx, system)
	if err != nil {
		return nil, err
	}
	if display, ok := cs.Concepts[code]; ok {
		return &ValidateCodeResult{Valid: true, Display: display, Code: code, System: system}, nil
	}
	return &ValidateCodeResult{
		Valid:   false,
		Message: fmt.Sprintf("code '%s' not found in code system '%s'", code, system),
		Code:    code,
		System:  system,
	}, nil
}

var _ Provider = (*InMemoryTerminologySupport)(nil)
