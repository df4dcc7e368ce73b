package money

import "testing"

func TestFromDollars_RoundsHalfUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dollars float64
		want    Cents
	}{
		{0, 0},
		{17.00, 1700},
		{15.30, 1530},
		{0.125, 13}, // exact binary half, rounds up
		{1.004, 100},
		{1.006, 101},
		{0.001, 0},
		{999.999, 100000},
	}

	for _, tt := range tests {
		if got := FromDollars(tt.dollars); got != tt.want {
			t.Errorf("FromDollars(%v) = %d, want %d", tt.dollars, got, tt.want)
		}
	}
}

func TestDollars_RoundTrip(t *testing.T) {
	t.Parallel()

	if got := Cents(1700).Dollars(); got != 17.00 {
		t.Errorf("Dollars() = %v, want 17.00", got)
	}
	if got := FromDollars(Cents(1234).Dollars()); got != 1234 {
		t.Errorf("round trip = %d, want 1234", got)
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cents Cents
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1700, "$17.00"},
		{1530, "$15.30"},
		{-250, "-$2.50"},
	}

	for _, tt := range tests {
		if got := tt.cents.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
