package validationservice

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"

	"github.com/Boereck/DEMIS-validation-service/catalog"
	"github.com/Boereck/DEMIS-validation-service/filter"
	"github.com/Boereck/DEMIS-validation-service/loader"
	"github.com/Boereck/DEMIS-validation-service/specs"
	"github.com/Boereck/DEMIS-validation-service/support"
)

// Engine produces raw validation findings for a FHIR document. The
// pipeline post-processes those findings; it never reorders them.
type Engine interface {
	Validate(ctx context.Context, document []byte) ([]Finding, error)
}

// EngineFactory builds an engine over a composed support chain. The
// locale and catalog drive the wording of the engine's findings.
type EngineFactory func(chain *support.Chain, loc language.Tag, cat *catalog.Catalog) (Engine, error)

// Pipeline validates FHIR documents and post-processes the raw findings:
// suppression of known noise by localized message prefix, then the
// minimum-severity threshold. Construction is fail-fast; a misconfigured
// pipeline never starts.
type Pipeline struct {
	engine       Engine
	chain        *support.Chain
	suppressions *filter.SuppressionSet
	minSeverity  Severity
	locale       language.Tag
	metrics      *Metrics
	opts         *Options
}

// New composes the support chain over the operator profiles and the
// built-in base definitions, then builds the engine and the filters.
// Any configuration error, including an unparseable minimum severity or
// an unresolvable suppression key, fails construction.
func New(profiles *support.ProfileSet, newEngine EngineFactory, opts ...Option) (*Pipeline, error) {
	if newEngine == nil {
		return nil, errors.New("engine factory is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	if o.Suppressions == nil {
		o.Suppressions = filter.DefaultSuppressions()
	}

	minSeverity, err := ParseSeverity(o.MinSeverity)
	if err != nil {
		return nil, errors.Wrap(err, "minimum outcome severity")
	}

	suppressions, err := filter.NewSuppressionSet(o.Suppressions, o.Locale, o.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "building suppression set")
	}

	defaults, err := loader.NewService().LoadFS(specs.Base())
	if err != nil {
		return nil, errors.Wrap(err, "loading built-in base definitions")
	}

	chain, err := support.Compose(profiles, defaults)
	if err != nil {
		return nil, errors.Wrap(err, "composing support chain")
	}

	engine, err := newEngine(chain, o.Locale, o.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "building validation engine")
	}

	p := &Pipeline{
		engine:       engine,
		chain:        chain,
		suppressions: suppressions,
		minSeverity:  minSeverity,
		locale:       o.Locale,
		metrics:      NewMetrics(),
		opts:         o,
	}

	o.Logger.Info().
		Str("minSeverity", string(minSeverity)).
		Str("locale", o.Locale.String()).
		Int("suppressionPrefixes", suppressions.Len()).
		Int("operatorProfiles", chainProfileCount(chain)).
		Msg("validation pipeline ready")
	return p, nil
}

func chainProfileCount(chain *support.Chain) int {
	for _, p := range chain.Providers() {
		if pre, ok := p.(*support.PrePopulatedSupport); ok {
			return pre.Count()
		}
	}
	return 0
}

// Validate runs the engine over the document and filters the findings.
// A finding survives when its message is not suppressed and its severity
// meets the threshold; both predicates are evaluated for every finding.
// The relative order of surviving findings is preserved.
func (p *Pipeline) Validate(ctx context.Context, document []byte) (*Outcome, error) {
	if len(document) == 0 {
		return nil, errors.New("document is empty")
	}

	start := time.Now()
	raw, err := p.engine.Validate(ctx, document)
	if err != nil {
		return nil, errors.Wrap(err, "running validation engine")
	}

	kept := make([]Finding, 0, len(raw))
	suppressed, belowThreshold := 0, 0
	for _, f := range raw {
		allowed := p.suppressions.Allowed(f.Message)
		meets := Rank(f.Severity) >= Rank(p.minSeverity)
		if !allowed {
			suppressed++
		}
		if !meets {
			belowThreshold++
		}
		if allowed && meets {
			kept = append(kept, f)
		}
	}

	outcome := newOutcome(kept)
	p.metrics.RecordValidation(time.Since(start), outcome.Valid())
	p.metrics.RecordSuppressed(suppressed)
	p.metrics.RecordBelowThreshold(belowThreshold)

	p.opts.Logger.Debug().
		Int("rawFindings", len(raw)).
		Int("suppressed", suppressed).
		Int("belowThreshold", belowThreshold).
		Int("reported", outcome.Len()).
		Bool("valid", outcome.Valid()).
		Dur("took", time.Since(start)).
		Msg("document validated")
	return outcome, nil
}

// WarmUp validates a representative document once so that lazy caches
// along the chain (default-profile indexes, compiled expressions,
// generated snapshots) are primed before real traffic arrives. Callers
// may treat a warm-up failure as non-fatal.
func (p *Pipeline) WarmUp(ctx context.Context) error {
	if _, err := p.Validate(ctx, warmUpDocument()); err != nil {
		return errors.Wrap(err, "warm-up validation")
	}
	return nil
}

// Chain exposes the composed support chain, mainly for diagnostics.
func (p *Pipeline) Chain() *support.Chain { return p.chain }

// Metrics exposes the pipeline counters.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// MinSeverity returns the configured outcome threshold.
func (p *Pipeline) MinSeverity() Severity { return p.minSeverity }

// warmUpDocument is a minimal but representative notification bundle: a
// batch with one laboratory Observation coded against LOINC. Validating
// it touches profile resolution, terminology and constraint evaluation.
func warmUpDocument() []byte {
	return []byte(`{
  "resourceType": "Bundle",
  "type": "batch",
  "entry": [
    {
      "resource": {
        "resourceType": "Observation",
        "id": "warm-up",
        "status": "final",
        "code": {
          "coding": [
            {
              "system": "http://loinc.org",
              "code": "789-8",
              "display": "Erythrocytes [#/volume] in Blood by Automated count"
            }
          ]
        }
      },
      "request": {
        "method": "POST",
        "url": "Observation"
      }
    }
  ]
}`)
}
