package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stratdsl/dsl"
	"stratdsl/llm"
	"stratdsl/market"
)

func testTable(closes []float64) *market.Table {
	n := len(closes)
	tbl := &market.Table{
		Times:  make([]time.Time, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  closes,
		Volume: make([]float64, n),
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		tbl.Times[i] = base.AddDate(0, 0, i)
		tbl.Open[i] = closes[i]
		tbl.High[i] = closes[i] + 1
		tbl.Low[i] = closes[i] - 1
		tbl.Volume[i] = 1000
	}
	return tbl
}

func TestRunFromDSL(t *testing.T) {
	p := New(nil, 10000, nil)
	out, err := p.RunFromDSL("ENTRY: close > prev(close, 1)\nEXIT: close < prev(close, 1)",
		testTable([]float64{10, 11, 12, 9, 10, 8}))
	if err != nil {
		t.Fatalf("RunFromDSL error: %v", err)
	}
	if out.Result == nil || out.Result.TotalTrades == 0 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunFromDSLPropagatesValidationError(t *testing.T) {
	p := New(nil, 10000, nil)
	_, err := p.RunFromDSL("ENTRY: bogus_field > 5\nEXIT: TRUE", testTable([]float64{1, 2, 3}))
	var ve *dsl.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *dsl.ValidationError", err)
	}
	if ve.Value != "bogus_field" {
		t.Fatalf("validation error names %q", ve.Value)
	}
}

func TestRunFromNL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": `{"entry": [{"left": "close", "operator": ">", "right": 10}], "exit": [{"left": "close", "operator": "<", "right": 10}]}`,
				}},
			},
		})
	}))
	defer srv.Close()

	p := New(llm.NewClient("k", srv.URL, "m"), 10000, nil)
	out, err := p.RunFromNL(context.Background(), "buy above ten, sell below ten",
		testTable([]float64{9, 11, 9, 11}))
	if err != nil {
		t.Fatalf("RunFromNL error: %v", err)
	}
	if out.Strategy == nil || out.DSLText == "" || out.Result == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Result.TotalTrades != 1 {
		t.Fatalf("trades = %d, want 1", out.Result.TotalTrades)
	}
}

func TestRunFromNLWithoutClient(t *testing.T) {
	p := New(nil, 10000, nil)
	if _, err := p.RunFromNL(context.Background(), "anything", testTable([]float64{1, 2})); err == nil {
		t.Fatal("missing client accepted")
	}
}
