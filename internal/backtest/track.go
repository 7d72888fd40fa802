package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// TrackPoint represents one day of a cumulative value track
type TrackPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// CumulativeTrack is the compounded value of a portfolio over time, starting
// from a base of 1.0
type CumulativeTrack []TrackPoint

// GetReturns calculates daily returns from the track
func (t CumulativeTrack) GetReturns() []float64 {
	if len(t) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(t)-1)
	for i := 1; i < len(t); i++ {
		prev := t[i-1].Value
		curr := t[i].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// FinalValue returns the last compounded value, or 0 for an empty track
func (t CumulativeTrack) FinalValue() float64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Value
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction
func (t CumulativeTrack) MaxDrawdown() float64 {
	peak := 0.0
	maxDD := 0.0
	for _, p := range t {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ToCSV exports the track to CSV string
func (t CumulativeTrack) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,value\n")
	for _, point := range t {
		buf.WriteString(point.Time.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(point.Value, 'f', 6, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the track to JSON string
func (t CumulativeTrack) ToJSON() string {
	data, _ := json.Marshal(t)
	return string(data)
}
