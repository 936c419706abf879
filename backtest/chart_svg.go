package backtest

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

type SVGChartOptions struct {
	Width  int
	Height int
}

func (o SVGChartOptions) withDefaults() SVGChartOptions {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 520
	}
	return o
}

// RenderEquitySVG draws the equity curve with trade exits marked, green for
// winners and red for losers.
func RenderEquitySVG(title string, res *Result, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()
	curve := res.EquityCurve
	if len(curve) < 2 {
		return nil, fmt.Errorf("not enough equity points: %d", len(curve))
	}

	minE := math.Inf(1)
	maxE := math.Inf(-1)
	for _, p := range curve {
		if p.Equity < minE {
			minE = p.Equity
		}
		if p.Equity > maxE {
			maxE = p.Equity
		}
	}
	if math.IsInf(minE, 0) || math.IsInf(maxE, 0) {
		return nil, fmt.Errorf("invalid equity range")
	}
	if maxE <= minE {
		maxE = minE + 1
	}
	pad := (maxE - minE) * 0.05
	minE -= pad
	maxE += pad

	// Layout
	w := float64(opt.Width)
	h := float64(opt.Height)
	mLeft := 80.0
	mRight := 20.0
	mTop := 24.0
	mBottom := 40.0
	plotW := w - mLeft - mRight
	plotH := h - mTop - mBottom
	if plotW <= 10 || plotH <= 10 {
		return nil, fmt.Errorf("invalid chart size")
	}

	equityToY := func(e float64) float64 {
		r := (e - minE) / (maxE - minE)
		r = math.Max(0, math.Min(1, r))
		return mTop + (1.0-r)*plotH
	}
	xAt := func(i int) float64 {
		return mLeft + (float64(i)+0.5)*plotW/float64(len(curve))
	}

	bg := "#0b1220"
	grid := "rgba(255,255,255,0.08)"
	line := "#38bdf8"
	up := "#22c55e"
	down := "#ef4444"
	txt := "rgba(255,255,255,0.85)"

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) + `" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + bg + `"/>` + "\n")

	// Header
	firstD := curve[0].Time
	lastD := curve[len(curve)-1].Time
	header := strings.TrimSpace(title)
	if header == "" {
		header = "EQUITY"
	}
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="16" fill="` + txt + `" font-size="14" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(header) + `  ` + html.EscapeString(firstD) + ` ~ ` + html.EscapeString(lastD) + `</text>` + "\n")

	// Grid: equity lines (5)
	for k := 0; k <= 5; k++ {
		y := mTop + (float64(k)/5.0)*plotH
		buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(y) + `" stroke="` + grid + `" stroke-width="1"/>` + "\n")
		e := maxE - (float64(k)/5.0)*(maxE-minE)
		buf.WriteString(`<text x="` + fmtFloat(6) + `" y="` + fmtFloat(y+4) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
			html.EscapeString(fmtEquity(e)) + `</text>` + "\n")
	}

	// Equity polyline
	var pts []string
	for i, p := range curve {
		pts = append(pts, fmtFloat(xAt(i))+","+fmtFloat(equityToY(p.Equity)))
	}
	buf.WriteString(`<polyline fill="none" stroke="` + line + `" stroke-width="1.5" points="` + strings.Join(pts, " ") + `"/>` + "\n")

	// Trade exit markers
	index := map[string]int{}
	for i, p := range curve {
		index[p.Time] = i
	}
	for _, t := range res.Trades {
		i, ok := index[t.ExitTime]
		if !ok {
			continue
		}
		col := up
		if t.PnL < 0 {
			col = down
		}
		buf.WriteString(`<circle cx="` + fmtFloat(xAt(i)) + `" cy="` + fmtFloat(equityToY(curve[i].Equity)) + `" r="3.5" fill="` + col + `" />` + "\n")
	}

	// Footer dates
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(firstD) + `</text>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+plotW-70) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(lastD) + `</text>` + "\n")

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtEquity(e float64) string {
	if math.Abs(e) >= 1000 {
		return strconv.FormatFloat(e, 'f', 0, 64)
	}
	return strconv.FormatFloat(e, 'f', 2, 64)
}
