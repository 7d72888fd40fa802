package marketdata

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTable(t *testing.T) *PriceTable {
	t.Helper()
	dates := []time.Time{
		day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5),
	}
	table, err := NewPriceTable(
		[]string{"AAA", "BBB"},
		dates,
		map[string][]float64{
			"AAA": {100, 110, 99, 99},
			"BBB": {50, 50, 55, 44},
		},
	)
	if err != nil {
		t.Fatalf("NewPriceTable: %v", err)
	}
	return table
}

func TestNewPriceTableRejectsUnorderedDates(t *testing.T) {
	_, err := NewPriceTable(
		[]string{"AAA"},
		[]time.Time{day(2024, 1, 3), day(2024, 1, 2)},
		map[string][]float64{"AAA": {100, 101}},
	)
	if !errors.Is(err, ErrUnorderedDates) {
		t.Fatalf("expected ErrUnorderedDates, got %v", err)
	}

	_, err = NewPriceTable(
		[]string{"AAA"},
		[]time.Time{day(2024, 1, 2), day(2024, 1, 2)},
		map[string][]float64{"AAA": {100, 101}},
	)
	if !errors.Is(err, ErrUnorderedDates) {
		t.Fatalf("expected ErrUnorderedDates for duplicate dates, got %v", err)
	}
}

func TestNewPriceTableRejectsBadColumns(t *testing.T) {
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3)}

	_, err := NewPriceTable([]string{"AAA"}, dates, map[string][]float64{"AAA": {100}})
	if !errors.Is(err, ErrUnalignedColumn) {
		t.Fatalf("expected ErrUnalignedColumn, got %v", err)
	}

	_, err = NewPriceTable([]string{"AAA"}, dates, map[string][]float64{"AAA": {100, 0}})
	if !errors.Is(err, ErrNonPositivePrice) {
		t.Fatalf("expected ErrNonPositivePrice, got %v", err)
	}

	_, err = NewPriceTable([]string{"AAA", "BBB"}, dates, map[string][]float64{"AAA": {100, 101}})
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}

	_, err = NewPriceTable([]string{"AAA"}, nil, map[string][]float64{"AAA": {}})
	if !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
}

func TestThroughIncludesCutoffDate(t *testing.T) {
	table := testTable(t)

	sub, err := table.Through(day(2024, 1, 4))
	if err != nil {
		t.Fatalf("Through: %v", err)
	}
	if sub.Len() != 3 {
		t.Fatalf("expected 3 rows through cutoff, got %d", sub.Len())
	}
	last := sub.Dates()[sub.Len()-1]
	if !last.Equal(day(2024, 1, 4)) {
		t.Fatalf("cutoff date should be included, last = %s", last)
	}

	if _, err := table.Through(day(2023, 12, 29)); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable before first date, got %v", err)
	}
}

func TestReturnsDerivation(t *testing.T) {
	table := testTable(t)

	returns, err := table.Returns()
	if err != nil {
		t.Fatalf("Returns: %v", err)
	}
	if returns.Len() != table.Len()-1 {
		t.Fatalf("return table should be one row shorter: %d vs %d", returns.Len(), table.Len())
	}
	if !returns.Dates()[0].Equal(day(2024, 1, 3)) {
		t.Fatalf("first return date should be the second price date")
	}

	col, err := returns.Column("AAA")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := []float64{0.10, 99.0/110.0 - 1, 0}
	for i, w := range want {
		if math.Abs(col[i]-w) > 1e-12 {
			t.Fatalf("return[%d] = %g, want %g", i, col[i], w)
		}
	}
}

func TestReturnTableWindowAndRow(t *testing.T) {
	table := testTable(t)
	returns, err := table.Returns()
	if err != nil {
		t.Fatalf("Returns: %v", err)
	}

	window, err := returns.Window(0, 2)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window["AAA"]) != 2 || len(window["BBB"]) != 2 {
		t.Fatalf("window should hold 2 rows per asset")
	}

	if _, err := returns.Window(2, 1); err == nil {
		t.Fatal("expected error for inverted window")
	}
	if _, err := returns.Row(99); err == nil {
		t.Fatal("expected error for out-of-range row")
	}

	row, err := returns.Row(0)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if math.Abs(row["AAA"]-0.10) > 1e-12 {
		t.Fatalf("row AAA = %g, want 0.10", row["AAA"])
	}
}

func TestTableFromPointsAlignsIntersection(t *testing.T) {
	points := map[string][]PricePoint{
		"AAA": {
			{Date: day(2024, 1, 2), Close: 100},
			{Date: day(2024, 1, 3), Close: 101},
			{Date: day(2024, 1, 4), Close: 102},
		},
		"BBB": {
			{Date: day(2024, 1, 3), Close: 50},
			{Date: day(2024, 1, 4), Close: 51},
			{Date: day(2024, 1, 5), Close: 52},
		},
	}

	table, err := TableFromPoints([]string{"AAA", "BBB"}, points)
	if err != nil {
		t.Fatalf("TableFromPoints: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 shared dates, got %d", table.Len())
	}
	if !table.Dates()[0].Equal(day(2024, 1, 3)) || !table.Dates()[1].Equal(day(2024, 1, 4)) {
		t.Fatalf("unexpected aligned dates: %v", table.Dates())
	}
}
