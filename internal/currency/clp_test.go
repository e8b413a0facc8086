package currency

import "testing"

func TestFormatCLP(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"zero", 0, "$0"},
		{"under a thousand", 999, "$999"},
		{"exactly a thousand", 1000, "$1.000"},
		{"typical price", 1234567, "$1.234.567"},
		{"rounds up", 1499.5, "$1.500"},
		{"rounds down", 1499.4, "$1.499"},
		{"negative", -1234567, "$-1.234.567"},
		{"millions", 123456789, "$123.456.789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCLP(tt.value); got != tt.want {
				t.Errorf("FormatCLP(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatCLPString(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"numeric", "1234567", "$1.234.567"},
		{"decimal", "1234567.89", "$1.234.568"},
		{"whitespace", " 1000 ", "$1.000"},
		{"not a number", "abc", "$0"},
		{"empty", "", "$0"},
		{"nan literal", "NaN", "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCLPString(tt.value); got != tt.want {
				t.Errorf("FormatCLPString(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatCLPPlain(t *testing.T) {
	if got := FormatCLPPlain(1234567); got != "1.234.567" {
		t.Errorf("FormatCLPPlain(1234567) = %q, want %q", got, "1.234.567")
	}
}
