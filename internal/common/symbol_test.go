package common

import (
	"testing"
)

func TestValidSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"HDFCBANK", true},
		{"TCS", true},
		{"M&M", true},
		{"BAJAJ-AUTO", true},
		{"BRK.B", true},
		{"SBIN", true},
		{"", false},
		{"hdfcbank", false},
		{"HDFC BANK", false},
		{"TCS!", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidSymbol(tt.input); got != tt.want {
				t.Errorf("ValidSymbol(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"HDFCBANK", "HDFCBANK"},
		{"hdfcbank", "HDFCBANK"},
		{"NSE:HDFCBANK", "HDFCBANK"},
		{"nse:reliance", "RELIANCE"},
		{"  TCS  ", "TCS"},
		{"m&m", "M&M"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSymbol(tt.input); got != tt.want {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
