package engine

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"
)

// fhirPathEvaluator evaluates FHIRPath constraint expressions against raw
// JSON resources. Compiled expressions are cached; the cache is shared
// between concurrent validations.
type fhirPathEvaluator struct {
	mu       sync.Mutex
	compiled map[string]*fhirpath.Expression
}

func newFHIRPathEvaluator() *fhirPathEvaluator {
	return &fhirPathEvaluator{compiled: make(map[string]*fhirpath.Expression)}
}

// Evaluate runs the expression and reduces the result with FHIRPath
// truthiness: an empty collection is false, a single boolean is itself,
// any other non-empty collection is true.
func (e *fhirPathEvaluator) Evaluate(expression string, resource []byte) (bool, error) {
	expr, err := e.getOrCompile(expression)
	if err != nil {
		return false, errors.Wrapf(err, "compiling expression %q", expression)
	}
	result, err := expr.Evaluate(resource)
	if err != nil {
		return false, errors.Wrapf(err, "evaluating expression %q", expression)
	}
	return toBool(result), nil
}

func (e *fhirPathEvaluator) getOrCompile(expression string) (*fhirpath.Expression, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if expr, ok := e.compiled[expression]; ok {
		return expr, nil
	}
	expr, err := fhirpath.Compile(expression)
	if err != nil {
		return nil, err
	}
	e.compiled[expression] = expr
	return expr, nil
}

func toBool(result types.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}
