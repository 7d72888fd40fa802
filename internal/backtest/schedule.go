package backtest

import (
	"fmt"
	"time"
)

// RebalanceSchedule carries the indices into a return series at which the
// portfolio is re-optimized. Each index is the first return date of its
// calendar bucket.
type RebalanceSchedule struct {
	Indices []int
	Dates   []time.Time
}

// BuildSchedule groups return dates into calendar buckets for the given
// frequency and keeps the first date of each bucket. Dates must be in
// ascending order.
func BuildSchedule(dates []time.Time, freq Frequency) (*RebalanceSchedule, error) {
	if !freq.Valid() {
		return nil, ErrNoPeriods
	}

	sched := &RebalanceSchedule{}
	var prevKey string
	for i, d := range dates {
		key := bucketKey(d, freq)
		if i == 0 || key != prevKey {
			sched.Indices = append(sched.Indices, i)
			sched.Dates = append(sched.Dates, d)
		}
		prevKey = key
	}
	if len(sched.Indices) == 0 {
		return nil, ErrNoPeriods
	}
	return sched, nil
}

// Len returns the number of rebalance periods
func (s *RebalanceSchedule) Len() int { return len(s.Indices) }

// PeriodEnd returns the exclusive end index of period i. The final period
// runs through the series end.
func (s *RebalanceSchedule) PeriodEnd(i, seriesLen int) int {
	if i+1 < len(s.Indices) {
		return s.Indices[i+1]
	}
	return seriesLen
}

func bucketKey(d time.Time, freq Frequency) string {
	switch freq {
	case FrequencyDaily:
		return d.Format("2006-01-02")
	case FrequencyWeekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case FrequencyMonthly:
		return d.Format("2006-01")
	case FrequencyQuarterly:
		return fmt.Sprintf("%04d-Q%d", d.Year(), (int(d.Month())-1)/3+1)
	case FrequencyAnnual:
		return d.Format("2006")
	}
	return d.Format("2006-01-02")
}
