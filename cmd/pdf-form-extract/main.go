package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdf-form-extract/internal/config"
	"github.com/a3tai/pdf-form-extract/internal/logging"
	"github.com/a3tai/pdf-form-extract/internal/mcp"
	"github.com/a3tai/pdf-form-extract/internal/pdf"
	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
	"github.com/a3tai/pdf-form-extract/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger for cfg. Logs always go to stderr so that
// stdout carries only the report or the MCP protocol.
func setupLogging(cfg *config.Config, stderr io.Writer) *logrus.Logger {
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return logging.New("error", stderr)
	}
	return logging.New(cfg.LogLevel, stderr)
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	log := setupLogging(cfg, os.Stderr)
	if cfg.IsDebug() {
		log.Debugf("Starting with configuration: %s", cfg.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, log); err != nil {
		log.WithError(err).Error("Run failed")
		stop()
		os.Exit(1)
	}
}

// run executes the configured mode, writing the report to stdout unless
// an output file is configured
func run(ctx context.Context, cfg *config.Config, stdout io.Writer, log logrus.FieldLogger) error {
	service, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.PDFDirectory,
		Recursive:   cfg.Recursive,
		Specs:       cfg.FieldSpecs(),
		Batch: pdf.BatchOptions{
			Workers: cfg.Workers,
			Timeout: cfg.Timeout,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	switch cfg.Mode {
	case config.ModeExtract:
		result := service.Batch().Run(ctx, cfg.Files)
		logSummary(log, result.Attempted, result.Succeeded)
		return writeReport(cfg, service.Specs(), result.Results, stdout)

	case config.ModeBatch:
		result, err := service.ExtractDirectory(ctx, pdf.FormExtractDirectoryRequest{Directory: cfg.PDFDirectory})
		if err != nil {
			return err
		}
		logSummary(log, result.Attempted, result.Succeeded)
		return writeReport(cfg, service.Specs(), result.Results, stdout)

	case config.ModeWatch:
		watcher := service.NewWatcher(cfg.PDFDirectory, pdf.WatchOptions{
			Duration: cfg.Duration,
			Interval: cfg.Interval,
		})
		result, err := watcher.Run(ctx)
		if err != nil && !pdf.IsCancellation(err) {
			return err
		}
		if err != nil {
			log.Warn("Watch interrupted, reporting records collected so far")
		}
		logSummary(log, result.Attempted, result.Succeeded)
		return writeReport(cfg, service.Specs(), result.Unique, stdout)

	case config.ModeStdio:
		server, err := mcp.NewServer(cfg, service, log)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	return fmt.Errorf("unknown mode %q", cfg.Mode)
}

func logSummary(log logrus.FieldLogger, attempted, succeeded int) {
	log.Infof("Total PDFs processed: %d, successfully extracted: %d", attempted, succeeded)
}

// writeReport renders results in the configured format to cfg.Output, or
// to stdout when no output file is set
func writeReport(cfg *config.Config, specs extraction.FieldSpecs, results []*extraction.ExtractionResult, stdout io.Writer) error {
	format := cfg.ReportFormat()

	if cfg.Output == "" {
		return report.Write(stdout, format, specs, results)
	}

	if format == report.FormatXLSX {
		return report.SaveXLSX(cfg.Output, specs, results)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.Write(f, format, specs, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Form Extract\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
