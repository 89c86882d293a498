package validationservice

import "testing"

func TestRank(t *testing.T) {
	tests := []struct {
		severity Severity
		want     int
	}{
		{SeverityInformation, 0},
		{SeverityWarning, 1},
		{SeverityError, 2},
		{SeverityFatal, 3},
		{"", 0},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := Rank(tt.severity); got != tt.want {
			t.Errorf("Rank(%q) = %d; want %d", tt.severity, got, tt.want)
		}
	}
}

func TestRank_TotalOrder(t *testing.T) {
	order := []Severity{SeverityInformation, SeverityWarning, SeverityError, SeverityFatal}
	for i := 1; i < len(order); i++ {
		if Rank(order[i-1]) >= Rank(order[i]) {
			t.Errorf("Rank(%q) = %d not below Rank(%q) = %d",
				order[i-1], Rank(order[i-1]), order[i], Rank(order[i]))
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"error", SeverityError},
		{"ERROR", SeverityError},
		{" Warning ", SeverityWarning},
		{"information", SeverityInformation},
		{"fatal", SeverityFatal},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.input)
		if err != nil {
			t.Errorf("ParseSeverity(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseSeverity_Unknown(t *testing.T) {
	if _, err := ParseSeverity("banana"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if _, err := ParseSeverity(""); err == nil {
		t.Error("expected error for empty severity")
	}
}
