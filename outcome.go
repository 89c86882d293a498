package validationservice

// Outcome is the final, filtered collection of findings for one validation
// call. It preserves the engine's original finding order and is immutable
// after construction.
type Outcome struct {
	findings []Finding
}

func newOutcome(findings []Finding) *Outcome {
	return &Outcome{findings: findings}
}

// Findings returns the retained findings in their original relative order.
// The returned slice is a copy; callers may not mutate Outcome state.
func (o *Outcome) Findings() []Finding {
	out := make([]Finding, len(o.findings))
	copy(out, o.findings)
	return out
}

// Valid returns true if the outcome contains no error or fatal findings.
func (o *Outcome) Valid() bool {
	for _, f := range o.findings {
		if f.IsError() {
			return false
		}
	}
	return true
}

// ErrorCount returns the number of error and fatal findings.
func (o *Outcome) ErrorCount() int {
	count := 0
	for _, f := range o.findings {
		if f.IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning findings.
func (o *Outcome) WarningCount() int {
	count := 0
	for _, f := range o.findings {
		if f.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// InfoCount returns the number of information findings.
func (o *Outcome) InfoCount() int {
	count := 0
	for _, f := range o.findings {
		if f.Severity == SeverityInformation {
			count++
		}
	}
	return count
}

// Len returns the number of retained findings.
func (o *Outcome) Len() int {
	return len(o.findings)
}

// OperationOutcome renders the outcome as a FHIR OperationOutcome resource.
// An outcome without findings renders a single informational issue so the
// caller always receives a well-formed resource.
func (o *Outcome) OperationOutcome() map[string]any {
	issues := make([]map[string]any, 0, len(o.findings))
	for _, f := range o.findings {
		severity := string(f.Severity)
		if severity == "" {
			severity = string(SeverityInformation)
		}
		issue := map[string]any{
			"severity":    severity,
			"code":        "processing",
			"diagnostics": f.Message,
		}
		if f.Location != "" {
			issue["location"] = []string{f.Location}
		}
		issues = append(issues, issue)
	}

	if len(issues) == 0 {
		issues = append(issues, map[string]any{
			"severity":    string(SeverityInformation),
			"code":        "informational",
			"diagnostics": "All OK",
		})
	}

	return map[string]any{
		"resourceType": "OperationOutcome",
		"issue":        issues,
	}
}
