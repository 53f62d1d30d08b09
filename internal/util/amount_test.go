package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "12.50", want: "12.5"},
		{name: "thousands comma", input: "1,234.56", want: "1234.56"},
		{name: "million", input: "1,234,567.89", want: "1234567.89"},
		{name: "nbsp separator", input: "1 234.56", want: "1234.56"},
		{name: "padded", input: " 99.00 ", want: "99"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s want %s", got.String(), tc.want)
			}
		})
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSignedAmount(t *testing.T) {
	m := decimal.RequireFromString("12.50")
	if got := SignedAmount(m, false); got.String() != "-12.5" {
		t.Fatalf("outflow got %s", got.String())
	}
	if got := SignedAmount(m, true); got.String() != "12.5" {
		t.Fatalf("deposit got %s", got.String())
	}
}
