package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"npopulse/internal/config"
	"npopulse/internal/infrastructure"
	"npopulse/internal/operations"
)

func main() {
	stepID := flag.String("step", "", "run a single pipeline step instead of the full run (geo_filter, classify, fetch, flatten, trajectory, momentum, score)")
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

	metrics, err := infrastructure.InitializeMetrics()
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	manager := operations.NewManager(operations.NewRegistry(), metrics.Metrics, logger)
	deps := operations.Deps{
		Config:  cfg,
		Paths:   paths,
		Metrics: metrics.Metrics,
		Logger:  logger,
	}
	if err := operations.RegisterAll(manager, deps); err != nil {
		logger.Error("failed to register pipeline steps", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	state, err := manager.Execute(ctx, operations.RunRequest{StepID: *stepID})
	printSummary(state)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}

func printSummary(state *operations.OperationState) {
	if state == nil {
		return
	}
	fmt.Printf("run %s: %s\n", state.ID, state.GetStatus())
	for _, id := range stepOrder(state) {
		step := state.GetStep(id)
		line := fmt.Sprintf("  %-12s %s", step.ID, step.GetStatus())
		if step.Message != "" {
			line += "  " + step.Message
		}
		if step.Error != nil {
			line += "  " + step.Error.Error()
		}
		fmt.Println(line)
	}
}

// stepOrder sorts recorded steps by start time so the summary follows
// execution order; never-started steps sink to the end.
func stepOrder(state *operations.OperationState) []string {
	type entry struct {
		id      string
		started string
	}
	entries := make([]entry, 0, len(state.Steps))
	for id, step := range state.Steps {
		started := "~" // sorts after timestamps
		if step.StartTime != nil {
			started = step.StartTime.Format("2006-01-02T15:04:05.000000000")
		}
		entries = append(entries, entry{id: id, started: started})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].started+entries[i].id < entries[j].started+entries[j].id
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}
