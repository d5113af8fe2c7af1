package scan

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractASIN(t *testing.T) {
	cases := []struct {
		cell string
		want string
	}{
		{"https://www.amazon.co.uk/dp/B08XYZ1234", "B08XYZ1234"},
		{"https://www.amazon.co.uk/dp/B08XYZ1234/ref=sr_1_1", "B08XYZ1234"},
		{"https://www.amazon.co.uk/Some-Product/dp/B08XYZ1234?th=1", "B08XYZ1234"},
		{"  https://www.amazon.co.uk/dp/B08XYZ1234  ", "B08XYZ1234"},
		{"https://www.amazon.co.uk/gp/product/B08XYZ1234", ""},
		{"B08XYZ1234", "B08XYZ1234"},
		{"  B08XYZ1234  ", "B08XYZ1234"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := ExtractASIN(tc.cell); got != tc.want {
			t.Errorf("ExtractASIN(%q) = %q, want %q", tc.cell, got, tc.want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		cell string
		want string
		ok   bool
	}{
		{"£10.00", "10", true},
		{"10.5", "10.5", true},
		{"£1,299.50", "1299.5", true},
		{" £3 ", "3", true},
		{"", "", false},
		{"ten pounds", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.cell)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseMoney(%q) unexpected error: %v", tc.cell, err)
				continue
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tc.cell, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("ParseMoney(%q) expected an error", tc.cell)
		}
	}
}
