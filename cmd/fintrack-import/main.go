// Command fintrack-import loads a CSV file of transactions into the ledger.
//
//	fintrack-import -user alice -kind expense -file january.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func main() {
	user := flag.String("user", "", "owner of the imported transactions")
	kindFlag := flag.String("kind", "expense", "collection to import into: expense or income")
	file := flag.String("file", "-", "CSV file with date,category,amount[,description] columns; - reads stdin")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(os.Getenv("LOG_LEVEL")))
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentImport)

	kind, err := core.ParseKind(*kindFlag)
	if err != nil {
		logger.Error("Invalid kind", log.FieldError, err)
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("Failed to open import file", log.FieldError, err, "file", *file)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()

	result, err := res.Service.ImportCSV(ctx, in, kind, *user)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, log.FieldUsername, *user, "file", *file)
		res.Cleanup()
		os.Exit(1)
	}

	for _, s := range result.Skipped {
		logger.Warn("Line skipped", "line", s.Line, "value", s.Value, "reason", s.Reason)
	}
	fmt.Printf("imported %d %s records for %s, skipped %d lines\n", result.Imported, kind, *user, len(result.Skipped))
}
