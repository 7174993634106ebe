package core

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{5, "5"},
		{100, "100"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{1234.5, "1,234.50"},
		{0.05, "0.05"},
		{999.999, "1,000"},
		{-1234.5, "-1,234.50"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCurrencyGlyphs(t *testing.T) {
	if got := FormatCNY(1500); got != "￥1,500" {
		t.Errorf("FormatCNY = %q", got)
	}
	if got := FormatJPY(98000); got != "¥98,000" {
		t.Errorf("FormatJPY = %q", got)
	}
}
