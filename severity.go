package validationservice

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Severity classifies the importance of a validation finding.
// It maps to OperationOutcome.issue.severity in FHIR.
type Severity string

const (
	// SeverityInformation indicates informational feedback.
	SeverityInformation Severity = "information"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a finding that makes the record invalid.
	SeverityError Severity = "error"
	// SeverityFatal indicates the record could not be processed at all.
	SeverityFatal Severity = "fatal"
)

// Rank maps a severity to its position in the total order
// information < warning < error < fatal. An absent or unknown severity
// ranks lowest, so it survives only the most permissive threshold.
func Rank(s Severity) int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityFatal:
		return 3
	default:
		return 0
	}
}

// ParseSeverity parses a configured severity string, case-insensitively.
// An unknown value is an error, so a misconfigured threshold is caught at
// startup instead of silently hiding findings.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "information":
		return SeverityInformation, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return "", errors.Newf("unknown severity value: %q", value)
	}
}
