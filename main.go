package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stratdsl/api"
	"stratdsl/backtest"
	"stratdsl/config"
	"stratdsl/llm"
	"stratdsl/market"
	"stratdsl/pipeline"
)

var (
	dslFile    string
	nlRule     string
	dataPath   string
	configPath string
	capital    float64
	outPath    string
	chartPath  string
	jsonOut    bool
	serveMode  bool
	port       int
)

func main() {
	flag.StringVar(&dslFile, "dsl-file", "", "path to a DSL strategy file")
	flag.StringVar(&nlRule, "nl", "", "natural-language trading rule (translated via LLM)")
	flag.StringVar(&dataPath, "data", "", "path to an OHLCV CSV file")
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Float64Var(&capital, "capital", 0, "initial capital (overrides config)")
	flag.StringVar(&outPath, "out", "", "write the result to this file (default stdout)")
	flag.StringVar(&chartPath, "chart", "", "write an equity curve SVG to this file")
	flag.BoolVar(&jsonOut, "json", false, "output JSON instead of the text report")
	flag.BoolVar(&serveMode, "serve", false, "run the HTTP API server")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg := config.Load(configPath)
	if capital > 0 {
		cfg.InitialCapital = capital
	}
	if port > 0 {
		cfg.Port = port
	}

	var client *llm.Client
	if cfg.APIKey != "" {
		client = llm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	}
	p := pipeline.New(client, cfg.InitialCapital, logger)

	if serveMode {
		runServer(p, cfg.Port, logger)
		return
	}

	if err := runOnce(p, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "time"
	logger, err := zc.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runServer(p *pipeline.Pipeline, port int, logger *zap.Logger) {
	server := api.NewServer(p, port, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func runOnce(p *pipeline.Pipeline, logger *zap.Logger) error {
	if dataPath == "" {
		return fmt.Errorf("missing -data: an OHLCV CSV file is required")
	}
	if (dslFile == "") == (nlRule == "") {
		return fmt.Errorf("exactly one of -dsl-file or -nl is required")
	}

	tbl, err := market.LoadCSV(dataPath)
	if err != nil {
		return err
	}
	logger.Info("loaded price data", zap.String("path", dataPath), zap.Int("bars", tbl.Len()))

	var out *pipeline.Outcome
	if nlRule != "" {
		out, err = p.RunFromNL(context.Background(), nlRule, tbl)
	} else {
		var text []byte
		text, err = os.ReadFile(dslFile)
		if err != nil {
			return fmt.Errorf("read strategy file: %w", err)
		}
		out, err = p.RunFromDSL(string(text), tbl)
	}
	if err != nil {
		return err
	}

	if chartPath != "" {
		svg, err := backtest.RenderEquitySVG("equity", out.Result, backtest.SVGChartOptions{})
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		if err := os.WriteFile(chartPath, svg, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info("wrote chart", zap.String("path", chartPath))
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if jsonOut || outPath != "" {
		return backtest.WriteJSON(w, out.Result)
	}
	return backtest.WriteText(w, out.Result)
}
