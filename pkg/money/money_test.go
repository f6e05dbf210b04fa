package money

import "testing"

func TestUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{2.005, "$2.01"},
		{-5, "$-5.00"},
		{-1234.56, "$-1,234.56"},
		{0.004, "$0.00"},
	}

	for _, tt := range tests {
		if got := USD(tt.in); got != tt.want {
			t.Errorf("USD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
