package market

import (
	"strings"
	"testing"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,100,105,99,104,1000
2024-01-03,104,106,103,105,1200
2024-01-04,105,107,101,102,900
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tbl.Len())
	}
	if tbl.Close[1] != 105 {
		t.Fatalf("close[1] = %v", tbl.Close[1])
	}
	if tbl.Times[0].Format("2006-01-02") != "2024-01-02" {
		t.Fatalf("times[0] = %v", tbl.Times[0])
	}
}

func TestReadCSVWithBOM(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("\ufeff" + sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV with BOM error: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("len = %d, want 3", tbl.Len())
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	src := "Date,Open,High,Low,Close\n2024-01-02,1,2,3,4\n"
	if _, err := ReadCSV(strings.NewReader(src)); err == nil {
		t.Fatal("missing volume column accepted")
	}
}

func TestReadCSVUnorderedDates(t *testing.T) {
	src := `Date,Open,High,Low,Close,Volume
2024-01-03,1,2,1,2,10
2024-01-02,1,2,1,2,10
`
	if _, err := ReadCSV(strings.NewReader(src)); err == nil {
		t.Fatal("out-of-order dates accepted")
	}
}

func TestColumnLookup(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	col, ok := tbl.Column("volume")
	if !ok || col[0] != 1000 {
		t.Fatalf("Column(volume) = %v, %v", col, ok)
	}
	if _, ok := tbl.Column("vwap"); ok {
		t.Fatal("unknown column reported present")
	}
}
