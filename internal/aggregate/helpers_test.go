package aggregate

import (
	"math/big"
	"testing"
)

func TestComputeRate(t *testing.T) {
	if got := computeRate(big.NewInt(5), 0); got != nil {
		t.Fatalf("expected nil rate for empty pool, got %s", *got)
	}
	got := computeRate(big.NewInt(1), 4)
	if got == nil || *got != "0.250000000000000000" {
		t.Fatalf("unexpected rate: %v", got)
	}
}

func TestComputeAPR(t *testing.T) {
	a := "0.001"
	b := "0.003"
	got := computeAPR(&a, &b, 365*24*3600)
	if got == nil || *got != "0.002000000000000000" {
		t.Fatalf("unexpected apr: %v", got)
	}

	day := computeAPR(&a, &a, 24*3600)
	if day == nil || *day != "0.365000000000000000" {
		t.Fatalf("unexpected daily apr: %v", day)
	}

	if computeAPR(&a, nil, 60) != nil {
		t.Fatalf("expected nil apr with one side missing")
	}
	if computeAPR(&a, &b, 0) != nil {
		t.Fatalf("expected nil apr for zero window")
	}
}

func TestWindowStart(t *testing.T) {
	if got := windowStart(179, 60); got != 120 {
		t.Fatalf("window start = %d", got)
	}
	if got := windowStart(180, 60); got != 180 {
		t.Fatalf("window start = %d", got)
	}
}
