package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Flattener converts cached filing documents into FilingRecord rows
type Flattener struct {
	cacheDir       string
	logger         *slog.Logger
	maxConcurrency int
}

// NewFlattener creates a flattener over the given cache directory
func NewFlattener(cacheDir string, logger *slog.Logger) *Flattener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flattener{
		cacheDir:       cacheDir,
		logger:         logger.With(slog.String("component", "flattener")),
		maxConcurrency: 4,
	}
}

// SetMaxConcurrency bounds the number of documents parsed in parallel
func (f *Flattener) SetMaxConcurrency(n int) {
	if n > 0 {
		f.maxConcurrency = n
	}
}

// Flatten reads every cached document and produces the long-format
// time series, sorted by EIN then year. Documents that are missing,
// not-found markers, or malformed are skipped with a warning.
func (f *Flattener) Flatten(ctx context.Context) ([]FilingRecord, error) {
	entries, err := os.ReadDir(f.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	var (
		mu      sync.Mutex
		records []FilingRecord
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrency)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()

		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			ein := strings.TrimSuffix(name, ".json")
			docRecords, err := f.flattenDocument(ein, filepath.Join(f.cacheDir, name))
			if err != nil {
				f.logger.WarnContext(gctx, "skipping filing document",
					slog.String("ein", ein),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			records = append(records, docRecords...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("flatten cancelled: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].EIN == records[j].EIN {
			return records[i].Year < records[j].Year
		}
		return records[i].EIN < records[j].EIN
	})

	f.logger.InfoContext(ctx, "flattened filing documents",
		slog.Int("records", len(records)),
		slog.Int("skipped_documents", skipped),
	)

	return records, nil
}

// flattenDocument converts one cached document into filing records
func (f *Flattener) flattenDocument(ein, path string) ([]FilingRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if doc.NotFound() {
		return nil, nil
	}

	orgName := doc.Organization.Name
	if orgName == "" {
		orgName = "Unknown"
	}

	var records []FilingRecord
	for _, filing := range doc.FilingsWithData {
		if filing.TaxPeriodYear == 0 {
			continue
		}

		record := FilingRecord{
			EIN:           ein,
			OrgName:       orgName,
			Year:          filing.TaxPeriodYear,
			Revenue:       filing.TotalRevenue,
			Expenses:      filing.TotalExpenses,
			Assets:        filing.TotalAssetsEnd,
			ProgramRev:    filing.ProgramRevenue,
			Contributions: filing.Contributions,
			ProgramPct:    programPct(filing.TotalRevenue, filing.ProgramRevenue),
		}

		// Drop completely empty filings
		if !record.HasFinancials() {
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

// programPct computes program revenue as a percentage of total revenue,
// rounded to two decimals. Nil when revenue is missing or non-positive.
func programPct(revenue, program *float64) *float64 {
	if revenue == nil || *revenue <= 0 {
		return nil
	}

	programVal := 0.0
	if program != nil {
		programVal = *program
	}

	pct := math.Round(programVal/(*revenue)*100*100) / 100
	return &pct
}
