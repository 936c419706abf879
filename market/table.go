// Package market holds the OHLCV price table the rest of the system evaluates
// against, plus loaders that build one from CSV files.
package market

import (
	"fmt"
	"time"
)

// Table is a column-major OHLCV series. All columns share one length and rows
// are ordered by strictly increasing time.
type Table struct {
	Times  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of bars.
func (t *Table) Len() int {
	return len(t.Close)
}

// Column returns the named price column. Names are the lowercase identifiers
// the strategy language uses.
func (t *Table) Column(name string) ([]float64, bool) {
	switch name {
	case "open":
		return t.Open, true
	case "high":
		return t.High, true
	case "low":
		return t.Low, true
	case "close":
		return t.Close, true
	case "volume":
		return t.Volume, true
	}
	return nil, false
}

// Validate checks column alignment and time ordering.
func (t *Table) Validate() error {
	n := len(t.Times)
	if len(t.Open) != n || len(t.High) != n || len(t.Low) != n ||
		len(t.Close) != n || len(t.Volume) != n {
		return fmt.Errorf("column lengths differ: times=%d open=%d high=%d low=%d close=%d volume=%d",
			n, len(t.Open), len(t.High), len(t.Low), len(t.Close), len(t.Volume))
	}
	for i := 1; i < n; i++ {
		if !t.Times[i].After(t.Times[i-1]) {
			return fmt.Errorf("bar %d time %s does not advance past %s",
				i, t.Times[i].Format("2006-01-02"), t.Times[i-1].Format("2006-01-02"))
		}
	}
	return nil
}

// Slice returns a view of bars [from, to).
func (t *Table) Slice(from, to int) *Table {
	return &Table{
		Times:  t.Times[from:to],
		Open:   t.Open[from:to],
		High:   t.High[from:to],
		Low:    t.Low[from:to],
		Close:  t.Close[from:to],
		Volume: t.Volume[from:to],
	}
}
