package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stratdsl/dsl"
	"stratdsl/market"
	"stratdsl/pipeline"
	"stratdsl/signal"
)

type Handler struct {
	pipeline *pipeline.Pipeline
}

func NewHandler(p *pipeline.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

type validateRequest struct {
	DSL string `json:"dsl" binding:"required"`
}

// Validate parses a DSL strategy without running it.
func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := dsl.Parse(req.DSL); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

type backtestRequest struct {
	DSL string `json:"dsl" binding:"required"`
	CSV string `json:"csv" binding:"required"`
}

// Backtest runs a DSL strategy over CSV price data supplied in the request.
func (h *Handler) Backtest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tbl, err := market.ReadCSV(strings.NewReader(req.CSV))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.pipeline.RunFromDSL(req.DSL, tbl)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

type backtestNLRequest struct {
	Rule string `json:"rule" binding:"required"`
	CSV  string `json:"csv" binding:"required"`
}

// BacktestNL translates a natural-language rule and runs the result.
func (h *Handler) BacktestNL(c *gin.Context) {
	var req backtestNLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tbl, err := market.ReadCSV(strings.NewReader(req.CSV))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.pipeline.RunFromNL(c.Request.Context(), req.Rule, tbl)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// statusFor maps the error taxonomy to HTTP: caller mistakes in the strategy
// text are 400, evaluation failures are 500.
func statusFor(err error) int {
	var syn *dsl.SyntaxError
	var val *dsl.ValidationError
	var run *signal.RuntimeError
	switch {
	case errors.As(err, &syn), errors.As(err, &val):
		return http.StatusBadRequest
	case errors.As(err, &run):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
