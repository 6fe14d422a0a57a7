package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatUSDCompact(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "$0.00"},
		{"999.5", "$999.50"},
		{"1000", "$1.00K"},
		{"45000000", "$45.00M"},
		{"10500000000", "$10.50B"},
		{"850000000000", "$850.00B"},
		{"-2500", "-$2.50K"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatUSDCompact(decimal.RequireFromString(tt.input))
			if result != tt.expected {
				t.Errorf("FormatUSDCompact(%s) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"43250.67", "$43250.670000"},
		{"0.072345", "$0.072345"},
		{"0.000008234", "$0.000008"},
		{"0.0000000023", "$0.0000000023"},
		{"0", "$0.000000"},
	}

	for _, tt := range tests {
		result := FormatPrice(decimal.RequireFromString(tt.input))
		if result != tt.expected {
			t.Errorf("FormatPrice(%s) = %s, want %s", tt.input, result, tt.expected)
		}
	}
}

func TestFormatPct(t *testing.T) {
	if got := FormatPct(decimal.RequireFromString("5.67")); got != "+5.67%" {
		t.Errorf("got %s", got)
	}
	if got := FormatPct(decimal.RequireFromString("-2.344")); got != "-2.34%" {
		t.Errorf("got %s", got)
	}
	if got := FormatPct(decimal.Zero); got != "+0.00%" {
		t.Errorf("got %s", got)
	}
}

func TestTrustLabel(t *testing.T) {
	tests := map[int]string{100: "High Trust", 80: "High Trust", 79: "Medium Trust", 40: "Low Trust", 0: "Very Low Trust"}
	for score, want := range tests {
		if got := TrustLabel(score); got != want {
			t.Errorf("TrustLabel(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	for in, want := range map[string]string{" $doge ": "DOGE", "Pepe": "PEPE", "": "", "$": ""} {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPairAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		created  time.Time
		expected string
	}{
		{time.Time{}, "-"},
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-42 * time.Minute), "42m"},
		{now.Add(-5 * time.Hour), "5h"},
		{now.Add(-3 * 24 * time.Hour), "3d"},
		{now.Add(-800 * 24 * time.Hour), "2y"},
	}
	for _, tt := range tests {
		if got := PairAge(tt.created, now); got != tt.expected {
			t.Errorf("PairAge(%v) = %s, want %s", tt.created, got, tt.expected)
		}
	}
}
