package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"npopulse/internal/config"
	"npopulse/internal/filings"
	"npopulse/internal/infrastructure"
	"npopulse/internal/registry"
)

func main() {
	inPath := flag.String("in", "", "classified registry CSV to fetch filings for (defaults to the pipeline's mapped table)")
	rps := flag.Float64("rps", 0, "override requests per second against the filings API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogger()

	paths := config.GetPaths(cfg)
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	if *inPath == "" {
		*inPath = paths.MappedCSV
	}
	if *rps <= 0 {
		*rps = cfg.Fetch.RatePerSecond
	}

	orgs, err := registry.LoadExtract(*inPath)
	if err != nil {
		logger.Error("failed to load registry table", "path", *inPath, "error", err)
		os.Exit(1)
	}

	eins := make([]string, 0, len(orgs))
	for _, org := range orgs {
		eins = append(eins, org.EIN)
	}

	client := filings.NewClient(cfg.Fetch.BaseURL, paths.CacheDir, logger,
		filings.WithRateLimit(*rps),
		filings.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.RequestTimeout}),
	)

	result, err := client.FetchAll(context.Background(), eins)
	if err != nil {
		logger.Error("fetch batch aborted", "error", err)
		os.Exit(1)
	}

	fmt.Printf("requested %d, fetched %d, cached %d, failed %d\n",
		result.Requested, result.Fetched, result.Cached, result.Failed)
}
