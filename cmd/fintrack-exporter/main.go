// Command fintrack-exporter writes budget reports to CSV files and, when
// configured, to Google Sheets.
//
// With -user it exports one report and exits:
//
//	fintrack-exporter -user alice -start 2024-01-01 -end 2024-12-31
//
// Without -user it consumes ledger events from AMQP and keeps the reports
// of the users they touch current.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	user := flag.String("user", "", "export one report for this user and exit")
	start := flag.String("start", "", "first day of the window, YYYY-MM-DD (default: trailing EXPORT_WINDOW_MONTHS)")
	end := flag.String("end", "", "last day of the window, YYYY-MM-DD")
	users := flag.String("users", "", "comma separated users refreshed by category changes in worker mode")
	flush := flag.Duration("flush", 30*time.Second, "how often pending users are exported in worker mode")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentExport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()

	exporter := export.NewExporter(res.Engine, logger, sinks(ctx, logger, cfg)...)

	if *user != "" {
		w, err := exportWindow(*start, *end, cfg.ExportWindowMonths)
		if err != nil {
			logger.Error("Invalid window", log.FieldError, err)
			res.Cleanup()
			os.Exit(2)
		}
		report, err := exporter.Export(ctx, *user, w)
		if err != nil {
			logger.Error("Export failed", log.FieldError, err, log.FieldUsername, *user)
			res.Cleanup()
			os.Exit(1)
		}
		logger.Info("Export finished",
			log.FieldUsername, *user,
			log.FieldWindow, w.String(),
			"net_savings", core.FormatUSD(report.Summary.NetSavings),
			log.FieldSkipped, len(report.Skipped))
		return
	}

	if res.AMQP == nil {
		logger.Error("Worker mode needs AMQP_URL; pass -user for a one-shot export")
		res.Cleanup()
		os.Exit(2)
	}

	ew := worker.NewExportWorker(exporter, worker.Config{FlushInterval: *flush, WindowMonths: cfg.ExportWindowMonths}, logger)
	if *users != "" {
		ew.Track(strings.Split(*users, ",")...)
	}
	if err := ew.Start(ctx); err != nil {
		logger.Error("Failed to start export worker", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	logger.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := res.AMQP.ConsumeLedgerEvents(ctx, ew.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := ew.Stop(shutdownCtx); err != nil {
		logger.Error("Export worker stop failed", log.FieldError, err)
	}
	logger.Info("Exporter stopped")
}

func sinks(ctx context.Context, logger *log.Logger, cfg *config.Config) []export.Sink {
	out := []export.Sink{export.NewCSVSink(cfg.ExportDir)}
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return out
	}

	creds := gsheet.Credentials{JSON: cfg.GoogleServiceAccountJSON, File: cfg.GoogleServiceAccountFile}
	if creds.File == "" {
		creds.File = cfg.GoogleApplicationCredFile
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, creds, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client, exporting to CSV only", log.FieldError, err)
		return out
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return append(out, client)
}

func exportWindow(start, end string, months int) (core.Window, error) {
	if start == "" && end == "" {
		return export.TrailingWindow(core.DateOf(time.Now()), months), nil
	}
	return core.ParseWindow(start, end)
}
