package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"stratdsl/pipeline"
)

const testCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,50,51,49,50,1000
2024-01-03,60,61,59,60,1000
2024-01-04,40,41,39,40,1000
`

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewHandler(pipeline.New(nil, 10000, nil))
	engine.POST("/api/validate", h.Validate)
	engine.POST("/api/backtest", h.Backtest)
	return engine
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidateEndpoint(t *testing.T) {
	router := testRouter()

	w := postJSON(t, router, "/api/validate", gin.H{"dsl": "ENTRY: close > 10\nEXIT: close < 5"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["valid"] != true {
		t.Fatalf("resp = %v", resp)
	}

	w = postJSON(t, router, "/api/validate", gin.H{"dsl": "ENTRY: bogus > 10\nEXIT: TRUE"})
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["valid"] != false {
		t.Fatalf("resp = %v", resp)
	}
}

func TestBacktestEndpoint(t *testing.T) {
	router := testRouter()

	w := postJSON(t, router, "/api/backtest", gin.H{
		"dsl": "ENTRY: close > 45\nEXIT: close < 45",
		"csv": testCSV,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["result"] == nil {
		t.Fatalf("missing result: %v", out)
	}
}

func TestBacktestEndpointRejectsBadStrategy(t *testing.T) {
	router := testRouter()
	w := postJSON(t, router, "/api/backtest", gin.H{
		"dsl": "ENTRY: close >\nEXIT: TRUE",
		"csv": testCSV,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBacktestEndpointRejectsBadCSV(t *testing.T) {
	router := testRouter()
	w := postJSON(t, router, "/api/backtest", gin.H{
		"dsl": "ENTRY: close > 1\nEXIT: FALSE",
		"csv": "not,a,price\nfile,at,all\n",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
