package validationservice

// Finding is a single diagnostic emitted by the validation engine.
// A Finding is a value and is never mutated after it has been produced.
type Finding struct {
	// Message is the locale-rendered diagnostic text.
	Message string `json:"message"`

	// Severity of the finding. Empty means unclassified and ranks lowest.
	Severity Severity `json:"severity,omitempty"`

	// Location is the element path the finding refers to,
	// e.g. "Bundle.entry[0].resource".
	Location string `json:"location,omitempty"`
}

// IsError returns true for error and fatal findings.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError || f.Severity == SeverityFatal
}

// String returns a human-readable representation of the finding.
func (f Finding) String() string {
	s := string(f.Severity)
	if s == "" {
		s = "unclassified"
	}
	if f.Location != "" {
		return s + ": " + f.Message + " at " + f.Location
	}
	return s + ": " + f.Message
}
