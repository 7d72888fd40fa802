package marketdata

import (
	"strings"
	"testing"
)

func TestNormalizeParsesAndRounds(t *testing.T) {
	n := NewNormalizer(nil)
	points, err := n.Normalize("AAA", []RawPoint{
		{Date: day(2024, 1, 2), Close: "100.123456", Valid: true},
		{Date: day(2024, 1, 3), Close: "101.5", Valid: true},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if points[0].Close != 100.1235 {
		t.Fatalf("expected rounding to 4 places, got %g", points[0].Close)
	}
	if points[1].Close != 101.5 {
		t.Fatalf("expected 101.5, got %g", points[1].Close)
	}
}

func TestNormalizeRejectsNonPositive(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.Normalize("AAA", []RawPoint{
		{Date: day(2024, 1, 2), Close: "0", Valid: true},
	})
	if err == nil || !strings.Contains(err.Error(), "non-positive") {
		t.Fatalf("expected non-positive price error, got %v", err)
	}
}

func TestNormalizeFillsGaps(t *testing.T) {
	n := NewNormalizer(nil)
	points, err := n.Normalize("AAA", []RawPoint{
		{Date: day(2024, 1, 2), Valid: false},
		{Date: day(2024, 1, 3), Close: "100", Valid: true},
		{Date: day(2024, 1, 4), Valid: false},
		{Date: day(2024, 1, 5), Close: "102", Valid: true},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := []float64{100, 100, 100, 102}
	for i, w := range want {
		if points[i].Close != w {
			t.Fatalf("point[%d] = %g, want %g", i, points[i].Close, w)
		}
	}
}

func TestNormalizeDropsUnparseableAsGap(t *testing.T) {
	n := NewNormalizer(nil)
	points, err := n.Normalize("AAA", []RawPoint{
		{Date: day(2024, 1, 2), Close: "100", Valid: true},
		{Date: day(2024, 1, 3), Close: "n/a", Valid: true},
		{Date: day(2024, 1, 4), Close: "104", Valid: true},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if points[1].Close != 100 {
		t.Fatalf("unparseable value should forward-fill, got %g", points[1].Close)
	}
}

func TestNormalizeAllInvalid(t *testing.T) {
	n := NewNormalizer(nil)
	if _, err := n.Normalize("AAA", []RawPoint{{Date: day(2024, 1, 2), Valid: false}}); err == nil {
		t.Fatal("expected error when no valid observations exist")
	}
}
