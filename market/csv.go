package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Accepted layouts for the date column, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// LoadCSV reads an OHLCV table from a CSV file. Exported CSVs frequently
// carry a UTF-8 BOM and mixed-case headers, so both are tolerated.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()
	tbl, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// ReadCSV parses CSV bytes into a Table. Required columns are date, open,
// high, low, close and volume, matched case-insensitively.
func ReadCSV(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	df := dataframe.ReadCSV(decoded, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}

	cols := map[string]string{}
	for _, name := range df.Names() {
		cols[strings.ToLower(strings.TrimSpace(name))] = name
	}
	dateCol, ok := cols["date"]
	if !ok {
		dateCol, ok = cols["time"]
	}
	if !ok {
		dateCol, ok = cols["timestamp"]
	}
	if !ok {
		return nil, fmt.Errorf("no date column among %v", df.Names())
	}

	numeric := func(key string) ([]float64, error) {
		name, ok := cols[key]
		if !ok {
			return nil, fmt.Errorf("missing column %q among %v", key, df.Names())
		}
		return df.Col(name).Float(), nil
	}

	tbl := &Table{}
	var err error
	if tbl.Open, err = numeric("open"); err != nil {
		return nil, err
	}
	if tbl.High, err = numeric("high"); err != nil {
		return nil, err
	}
	if tbl.Low, err = numeric("low"); err != nil {
		return nil, err
	}
	if tbl.Close, err = numeric("close"); err != nil {
		return nil, err
	}
	if tbl.Volume, err = numeric("volume"); err != nil {
		return nil, err
	}

	for i, raw := range df.Col(dateCol).Records() {
		ts, err := parseDate(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		tbl.Times = append(tbl.Times, ts)
	}

	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	return tbl, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
