package runner

import "testing"

func TestCalcQty(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		price   float64
		want    string
	}{
		{"exact", 1000, 2000, "1.425"},
		{"truncated", 2.2, 2000, "0.003"},
		{"odd price", 1000, 3333.33, "0.855"},
		{"no balance", 0, 2000, "0"},
		{"no price", 1000, 0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcQty(tt.balance, 3, tt.price, 0.95, 3).String(); got != tt.want {
				t.Fatalf("CalcQty = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSlippageExceeded(t *testing.T) {
	if !SlippageExceeded(2010, 2000, 5) {
		t.Fatal("10 over 5 not detected")
	}
	if SlippageExceeded(2005, 2000, 5) {
		t.Fatal("exactly at the limit is allowed")
	}
	if SlippageExceeded(1995.5, 2000, 5) {
		t.Fatal("4.5 below is allowed")
	}
	if SlippageExceeded(9999, 2000, 0) {
		t.Fatal("zero limit disables the check")
	}
}
