package validationservice

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/Boereck/DEMIS-validation-service/catalog"
	"github.com/Boereck/DEMIS-validation-service/support"
)

// stubEngine returns a fixed set of findings, letting the tests exercise
// the post-processing in isolation.
type stubEngine struct {
	findings []Finding
}

func (s stubEngine) Validate(context.Context, []byte) ([]Finding, error) {
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out, nil
}

func stubFactory(findings []Finding) EngineFactory {
	return func(*support.Chain, language.Tag, *catalog.Catalog) (Engine, error) {
		return stubEngine{findings: findings}, nil
	}
}

func newTestPipeline(t *testing.T, findings []Finding, opts ...Option) *Pipeline {
	t.Helper()
	opts = append(opts, WithLogger(zerolog.Nop()))
	p, err := New(support.NewProfileSet(), stubFactory(findings), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// suppressedMessage renders a message matching a default suppression
// prefix, so the tests do not hard-code catalog wording.
func suppressedMessage(t *testing.T, detail string) string {
	t.Helper()
	template, err := catalog.Default().Resolve("This_element_does_not_match_any_known_slice_", language.English)
	if err != nil {
		t.Fatalf("resolving template: %v", err)
	}
	prefix := template[:strings.IndexByte(template, '{')]
	return prefix + detail
}

func TestNew_UnknownMinSeverity(t *testing.T) {
	_, err := New(support.NewProfileSet(), stubFactory(nil),
		WithMinSeverity("banana"), WithLogger(zerolog.Nop()))
	if err == nil {
		t.Fatal("expected construction to fail for unknown severity")
	}
}

func TestNew_UnknownSuppressionKey(t *testing.T) {
	_, err := New(support.NewProfileSet(), stubFactory(nil),
		WithSuppressions(map[string]string{"No_Such_Key": "testing"}),
		WithLogger(zerolog.Nop()))
	if err == nil {
		t.Fatal("expected construction to fail for unresolvable suppression key")
	}
}

func TestNew_NilFactory(t *testing.T) {
	if _, err := New(support.NewProfileSet(), nil); err == nil {
		t.Fatal("expected construction to fail without an engine factory")
	}
}

func TestValidate_SeverityThreshold(t *testing.T) {
	findings := []Finding{
		{Message: "note", Severity: SeverityInformation},
		{Message: "suspicious", Severity: SeverityWarning},
		{Message: "broken", Severity: SeverityError},
		{Message: "unusable", Severity: SeverityFatal},
	}

	tests := []struct {
		minSeverity string
		want        int
	}{
		{"information", 4},
		{"warning", 3},
		{"error", 2},
		{"fatal", 1},
	}
	for _, tt := range tests {
		t.Run(tt.minSeverity, func(t *testing.T) {
			p := newTestPipeline(t, findings, WithMinSeverity(tt.minSeverity))
			outcome, err := p.Validate(context.Background(), []byte(`{}`))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if outcome.Len() != tt.want {
				t.Errorf("retained %d findings; want %d", outcome.Len(), tt.want)
			}
		})
	}
}

func TestValidate_UnclassifiedRanksLowest(t *testing.T) {
	p := newTestPipeline(t, []Finding{{Message: "no severity"}}, WithMinSeverity("warning"))
	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if outcome.Len() != 0 {
		t.Error("finding without severity must be dropped by a warning threshold")
	}

	p = newTestPipeline(t, []Finding{{Message: "no severity"}}, WithMinSeverity("information"))
	outcome, err = p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if outcome.Len() != 1 {
		t.Error("finding without severity must survive an information threshold")
	}
}

func TestValidate_SuppressionIgnoresSeverity(t *testing.T) {
	findings := []Finding{
		{Message: suppressedMessage(t, "entry[0]"), Severity: SeverityFatal},
		{Message: "real problem", Severity: SeverityError},
	}
	p := newTestPipeline(t, findings, WithMinSeverity("information"))
	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if outcome.Len() != 1 {
		t.Fatalf("retained %d findings; want 1", outcome.Len())
	}
	if outcome.Findings()[0].Message != "real problem" {
		t.Errorf("wrong finding survived: %q", outcome.Findings()[0].Message)
	}
}

func TestValidate_PrefixMatchOnly(t *testing.T) {
	// The suppressed wording appearing mid-message must not suppress.
	message := "context: " + suppressedMessage(t, "entry[0]")
	p := newTestPipeline(t, []Finding{{Message: message, Severity: SeverityError}})
	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if outcome.Len() != 1 {
		t.Error("suppression must match prefixes, not substrings")
	}
}

func TestValidate_PreservesOrder(t *testing.T) {
	findings := []Finding{
		{Message: "first", Severity: SeverityError},
		{Message: suppressedMessage(t, "x"), Severity: SeverityError},
		{Message: "second", Severity: SeverityFatal},
		{Message: "third", Severity: SeverityError},
	}
	p := newTestPipeline(t, findings)
	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := outcome.Findings()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("retained %d findings; want %d", len(got), len(want))
	}
	for i, message := range want {
		if got[i].Message != message {
			t.Errorf("finding %d = %q; want %q", i, got[i].Message, message)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	findings := []Finding{
		{Message: "note", Severity: SeverityInformation},
		{Message: "broken", Severity: SeverityError},
	}
	p := newTestPipeline(t, findings, WithMinSeverity("warning"))

	first, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	second, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("filtering not idempotent: %d then %d findings", first.Len(), second.Len())
	}
	for i := range first.Findings() {
		if first.Findings()[i] != second.Findings()[i] {
			t.Errorf("finding %d differs between runs", i)
		}
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	p := newTestPipeline(t, nil)
	if _, err := p.Validate(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestValidate_GermanSuppressions(t *testing.T) {
	template, err := catalog.Default().Resolve("Validation_VAL_Profile_NoMatch", language.German)
	if err != nil {
		t.Fatalf("resolving template: %v", err)
	}
	prefix := template[:strings.IndexByte(template, '{')]

	p := newTestPipeline(t, []Finding{
		{Message: prefix + "http://example.org/p", Severity: SeverityError},
	}, WithLocale(language.German))

	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if outcome.Len() != 0 {
		t.Error("German-rendered suppression message must be dropped under the German locale")
	}
}

func TestWarmUp(t *testing.T) {
	p := newTestPipeline(t, nil)
	if err := p.WarmUp(context.Background()); err != nil {
		t.Fatalf("WarmUp: %v", err)
	}
	if got := p.Metrics().Snapshot().ValidationsTotal; got != 1 {
		t.Errorf("ValidationsTotal = %d; want 1", got)
	}
}

func TestValidate_Metrics(t *testing.T) {
	findings := []Finding{
		{Message: suppressedMessage(t, "y"), Severity: SeverityError},
		{Message: "note", Severity: SeverityInformation},
		{Message: "broken", Severity: SeverityError},
	}
	p := newTestPipeline(t, findings, WithMinSeverity("error"))
	if _, err := p.Validate(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	snap := p.Metrics().Snapshot()
	if snap.ValidationsTotal != 1 {
		t.Errorf("ValidationsTotal = %d; want 1", snap.ValidationsTotal)
	}
	if snap.ValidationsValid != 0 {
		t.Errorf("ValidationsValid = %d; want 0", snap.ValidationsValid)
	}
	if snap.FindingsSuppressed != 1 {
		t.Errorf("FindingsSuppressed = %d; want 1", snap.FindingsSuppressed)
	}
	if snap.FindingsBelowThreshold != 1 {
		t.Errorf("FindingsBelowThreshold = %d; want 1", snap.FindingsBelowThreshold)
	}
}

func TestValidate_CombinedFiltering(t *testing.T) {
	findings := []Finding{
		{Message: "resource could not be parsed", Severity: SeverityFatal},
		{Message: suppressedMessage(t, "Patient.contact"), Severity: SeverityInformation},
		{Message: "coding display mismatch", Severity: SeverityInformation},
		{Message: "unknown extension", Severity: SeverityWarning},
	}
	p := newTestPipeline(t, findings, WithMinSeverity("warning"))

	outcome, err := p.Validate(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	kept := outcome.Findings()
	if len(kept) != 2 {
		t.Fatalf("kept %d findings; want 2: %v", len(kept), kept)
	}
	if kept[0].Severity != SeverityFatal {
		t.Errorf("first kept finding = %v; want the fatal one", kept[0])
	}
	if kept[1].Severity != SeverityWarning {
		t.Errorf("second kept finding = %v; want the warning", kept[1])
	}
	if outcome.Valid() {
		t.Error("outcome with a fatal finding must not be valid")
	}
}
