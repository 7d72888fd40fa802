package marketdata

import (
	"testing"
	"time"
)

func TestBusinessDaysSkipsWeekends(t *testing.T) {
	// Monday 2024-01-01 through Sunday 2024-01-07.
	days := BusinessDays(day(2024, 1, 1), day(2024, 1, 7))
	if len(days) != 5 {
		t.Fatalf("expected 5 business days, got %d", len(days))
	}
	for _, d := range days {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend day %s in business days", d.Format("2006-01-02"))
		}
	}
}

func TestGenerateSyntheticIsDeterministic(t *testing.T) {
	cfg := SyntheticConfig{
		Tickers: []string{"TSLA", "BND", "SPY"},
		Start:   day(2024, 1, 1),
		End:     day(2024, 3, 29),
		Seed:    42,
	}

	a, err := GenerateSynthetic(cfg)
	if err != nil {
		t.Fatalf("GenerateSynthetic: %v", err)
	}
	b, err := GenerateSynthetic(cfg)
	if err != nil {
		t.Fatalf("GenerateSynthetic: %v", err)
	}

	if a.Len() != b.Len() {
		t.Fatalf("runs differ in length: %d vs %d", a.Len(), b.Len())
	}
	for _, ticker := range cfg.Tickers {
		ca, _ := a.Column(ticker)
		cb, _ := b.Column(ticker)
		for i := range ca {
			if ca[i] != cb[i] {
				t.Fatalf("%s differs at row %d: %g vs %g", ticker, i, ca[i], cb[i])
			}
		}
	}
}

func TestGenerateSyntheticPositivePrices(t *testing.T) {
	table, err := GenerateSynthetic(SyntheticConfig{
		Tickers: []string{"TSLA"},
		Start:   day(2020, 1, 1),
		End:     day(2024, 12, 31),
		Seed:    7,
	})
	if err != nil {
		t.Fatalf("GenerateSynthetic: %v", err)
	}
	col, _ := table.Column("TSLA")
	for i, v := range col {
		if v <= 0 {
			t.Fatalf("non-positive price %g at row %d", v, i)
		}
	}
}
