// Command recode rewrites source code with an LLM according to a natural
// language instruction.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... recode [flags]
//	OPENAI_API_KEY=sk-... recode [flags]
//
// Modes:
//
//	recode -file main.py                                 interactive TUI
//	recode -instruction "add docstrings" -file main.py   one-shot, result to stdout or -out
//	recode -instruction "add types" -glob '**/*.py'      batch, results under the output dir
//	recode -smoke                                        API smoke test
//
// Flags:
//
//	-config string        Path to YAML config file (default: recode.yaml)
//	-provider string      Provider: gemini, openai (auto-detected from env vars if omitted)
//	-api-key string       API key (overrides provider's env var)
//	-instruction string   Change to apply
//	-file string          Source file to rewrite
//	-glob string          Batch pattern, matched under -dir
//	-dir string           Batch root directory (default: .)
//	-out string           One-shot or TUI save destination
//	-jobs int             Concurrent batch requests (default: 4)
//	-unfence              Strip a markdown fence wrapping the whole result
//	-smoke                Run the API smoke test and exit
//	-metrics-addr string  Serve Prometheus metrics on this address
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fwojciec/recode"
	bt "github.com/fwojciec/recode/bubbletea"
	"github.com/fwojciec/recode/gateway"
	"github.com/fwojciec/recode/goldmark"
	recodeprom "github.com/fwojciec/recode/prometheus"
	recodeyaml "github.com/fwojciec/recode/yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultConfigPath = "recode.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recode: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", defaultConfigPath, "Path to YAML config file")
		providerFlag = flag.String("provider", "", "Provider: gemini, openai (auto-detected from env vars if omitted)")
		apiKey       = flag.String("api-key", "", "API key (overrides provider's env var)")
		instruction  = flag.String("instruction", "", "Change to apply")
		file         = flag.String("file", "", "Source file to rewrite")
		glob         = flag.String("glob", "", "Batch pattern, matched under -dir")
		dir          = flag.String("dir", ".", "Batch root directory")
		out          = flag.String("out", "", "One-shot or TUI save destination")
		jobs         = flag.Int("jobs", 4, "Concurrent batch requests")
		unfence      = flag.Bool("unfence", false, "Strip a markdown fence wrapping the whole result")
		smoke        = flag.Bool("smoke", false, "Run the API smoke test and exit")
		metricsAddr  = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	name, key, err := resolveProvider(*providerFlag, string(cfg.Provider), *apiKey,
		os.Getenv("GEMINI_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return err
	}
	providerCfg, err := cfg.ProviderConfig(name)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	opts := []gateway.Option{
		gateway.WithMaxRetries(cfg.MaxRetries),
		gateway.WithRetryDelay(cfg.RetryDelay),
		gateway.WithLogger(logger),
	}
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, gateway.WithObserver(recodeprom.NewObserver(reg)))
		shutdown := serveMetrics(*metricsAddr, reg, logger)
		defer shutdown()
	}

	gw, err := gateway.Create(ctx, name, key, providerCfg, opts...)
	if err != nil {
		return err
	}
	logger.Info("gateway ready", "provider", name, "model", providerCfg.Model, "max_retries", gw.MaxRetries())

	switch {
	case *smoke:
		results := runSmoke(ctx, gw.Provider(), smokePrompts, smokeDelay)
		return reportSmoke(os.Stdout, string(name), results)

	case *instruction != "" && *glob != "":
		results, err := runBatch(ctx, gw.ProcessText, batchOptions{
			Dir:         *dir,
			Pattern:     *glob,
			OutDir:      cfg.OutputDir,
			Instruction: *instruction,
			Jobs:        *jobs,
			Unfence:     *unfence,
		})
		if err != nil {
			return err
		}
		return reportBatch(os.Stdout, results)

	case *instruction != "" && *file != "":
		return runOnce(ctx, gw.ProcessText, *instruction, *file, *out, *unfence, os.Stdout)

	case *instruction != "":
		return errors.New("-instruction requires -file or -glob")
	}

	code := ""
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		code = string(data)
	}
	savePath := *out
	if savePath == "" && *file != "" {
		savePath = filepath.Join(cfg.OutputDir, filepath.Base(*file))
	}
	tuiModel := bt.New(gw.ProcessText, code, recode.DefaultTheme(), bt.Config{
		SourcePath: *file,
		OutputPath: savePath,
		Provider:   string(name),
		Unfence:    *unfence,
	})
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// loadConfig reads the YAML config. A missing default file yields the
// built-in defaults; a missing explicit file is an error.
func loadConfig(path string) (recode.Config, error) {
	cfg, err := recodeyaml.Load(path)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, os.ErrNotExist) && path == defaultConfigPath:
		return recode.DefaultConfig(), nil
	default:
		return recode.Config{}, err
	}
}

// setupLogging opens the log file when logging is enabled. The returned
// func closes it.
func setupLogging(cfg recode.Config) (*slog.Logger, func(), error) {
	if !cfg.Logging || cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }, nil
}

// runOnce rewrites a single file and writes the result to out, or to w when
// out is empty.
func runOnce(ctx context.Context, rewrite bt.RewriteFunc, instruction, file, out string, unfence bool, w io.Writer) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	code, err := rewrite(ctx, instruction, string(data))
	if err != nil {
		return err
	}
	if unfence {
		code, _ = goldmark.Unfence(code)
	}
	if out == "" {
		_, err := io.WriteString(w, code)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// serveMetrics exposes reg on addr/metrics. The returned func shuts the
// server down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
