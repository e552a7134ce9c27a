package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arsarazi/realty/internal/property"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"zero", 0, "0 TL"},
		{"small", 999, "999 TL"},
		{"thousands", 450000, "450.000 TL"},
		{"millions", 1250000, "1.250.000 TL"},
		{"rounded", 224.6, "225 TL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatPrice(tt.amount)
			if result != tt.expected {
				t.Errorf("formatPrice(%v) = %q, want %q", tt.amount, result, tt.expected)
			}
		})
	}
}

func TestFormatArea(t *testing.T) {
	if got := formatArea(12500); got != "12.500 m²" {
		t.Errorf("formatArea = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "Urla", 10, "Urla"},
		{"exact", "Bodrum", 6, "Bodrum"},
		{"long", "Seaside olive grove", 10, "Seaside..."},
		{"multibyte", "Çeşme yazlık villa", 8, "Çeşme..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPrintPropertyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printPropertyTable(&buf, nil); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "No properties found.\n" {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	props := []property.Property{{
		ID: 3, Title: "Urla olive grove", Type: property.TypeAgricultural,
		Location: "Izmir, Urla", Area: 2000, Price: 450000, IsFeatured: true,
	}}
	if err := printPropertyTable(&buf, props); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Urla olive grove", "agricultural", "2.000 m²", "450.000 TL", "★"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
