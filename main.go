package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"unified-listings/config"
	"unified-listings/fetcher"
	"unified-listings/services"
	"unified-listings/storage"
	"unified-listings/utils"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitConfig   = 2
	exitStore    = 3
	exitUpstream = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	cfg := config.Load()

	outputDB := flag.String("output-db", cfg.StoreDSN(), "SQLite file path or Postgres DSN for the unified table")
	driver := flag.String("driver", cfg.StoreDriver, "store driver: sqlite or postgres")
	baseParams := flag.String("base-params", "", "default request params as a JSON object or a path to a JSON file")
	pageSize := flag.Int("page-size", cfg.PageSize, "listings requested per page")
	maxRecords := flag.Int("max-records", 0, "stop after this many inserted records (0 = no cap)")
	delay := flag.Duration("delay", cfg.Delay, "minimum delay between requests")
	timeout := flag.Duration("timeout", cfg.Timeout, "per-request timeout")
	retries := flag.Int("retries", cfg.MaxRetries, "retries for network errors and HTTP 429")
	overwrite := flag.Bool("overwrite", false, "drop stored rows before fetching")
	logLevel := flag.String("log-level", "INFO", "DEBUG, INFO, WARNING, ERROR or CRITICAL")
	prioritiesFile := flag.String("priorities", cfg.PrioritiesFile, "TOML file with a [priorities] table")
	exportCSV := flag.String("export-csv", "", "write the unified table to this CSV file after fetching")
	report := flag.Bool("report", false, "print insights over the stored rows after fetching")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] autodev|marketcheck\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level, err := utils.ParseLevel(*logLevel)
	if err != nil {
		logger.Error("%v", err)
		return exitConfig
	}
	logger.SetLevel(level)

	if flag.NArg() != 1 {
		flag.Usage()
		return exitConfig
	}
	source := strings.ToLower(flag.Arg(0))

	apiKey, err := cfg.APIKey(source)
	if err != nil {
		logger.Error("%v", err)
		return exitConfig
	}
	params, err := config.ParseBaseParams(*baseParams)
	if err != nil {
		logger.Error("%v", err)
		return exitConfig
	}
	priorities := storage.DefaultPriorities()
	if *prioritiesFile != "" {
		loaded, err := config.LoadPriorities(*prioritiesFile)
		if err != nil {
			logger.Error("%v", err)
			return exitConfig
		}
		priorities = storage.Priorities(loaded)
	}

	if err := storage.ValidateDriver(*driver); err != nil {
		logger.Error("%v", err)
		return exitConfig
	}
	dsn := *outputDB
	if !flagSet("output-db") {
		cfg.StoreDriver = *driver
		dsn = cfg.StoreDSN()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("=== Unified listings fetch starting ===")
	logger.Info("Config: source=%s | driver=%s | page size=%d | max records=%d | delay=%v",
		source, *driver, *pageSize, *maxRecords, *delay)

	writer, err := storage.NewUnifiedWriter(ctx, storage.Options{
		Driver:     *driver,
		DSN:        dsn,
		Overwrite:  *overwrite,
		Priorities: priorities,
	})
	if err != nil {
		logger.Error("Failed to open unified store: %v", err)
		return exitCode(err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("Failed to close unified store: %v", err)
		}
	}()

	f, err := fetcher.New(writer, fetcher.Options{
		Source:     source,
		APIKey:     apiKey,
		BaseParams: params,
		PageSize:   *pageSize,
		MaxRecords: *maxRecords,
		Delay:      *delay,
		Timeout:    *timeout,
		Retries:    *retries,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("%v", err)
		return exitConfig
	}

	stats, err := f.Run(ctx)
	logger.Info("Inserted %d unified records", stats.Inserted)
	logger.Info("[%s] pages=%d seen=%d skipped(no VIN)=%d rejected(priority)=%d repeated VINs=%d",
		source, stats.Pages, stats.Seen, stats.SkippedNoVIN, stats.Rejected, stats.RepeatedVINs)
	if err != nil {
		logger.Error("Fetch failed: %v", err)
		return exitCode(err)
	}
	if err := writer.Commit(); err != nil {
		logger.Error("Commit failed: %v", err)
		return exitStore
	}

	if *exportCSV != "" {
		csvWriter, err := storage.NewCSVWriter(*exportCSV)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
			return exitFailure
		}
		n, err := storage.Export(ctx, writer, csvWriter)
		if cerr := csvWriter.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			logger.Error("CSV export failed: %v", err)
			return exitFailure
		}
		logger.Info("Exported %d rows to %s", n, *exportCSV)
	}

	if *report {
		summaries, err := writer.Summaries(ctx)
		if err != nil {
			logger.Error("Failed to read listings for insights: %v", err)
			return exitStore
		}
		insightSvc := services.NewInsightService(logger)
		insightSvc.Print(os.Stdout, insightSvc.Generate(summaries))
	}

	return exitOK
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrConfig):
		return exitConfig
	case errors.Is(err, storage.ErrStoreUnavailable):
		return exitStore
	case errors.Is(err, fetcher.ErrRetriesExhausted), errors.Is(err, fetcher.ErrUpstreamStatus):
		return exitUpstream
	}
	return exitFailure
}
