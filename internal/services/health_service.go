package services

import (
	"context"
	"os"
	"runtime"
	"time"

	"npopulse/internal/config"
)

// HealthStatus is the health check response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Data      map[string]DataFileState `json:"data,omitempty"`
}

// DataFileState reports presence and freshness of a pipeline output
type DataFileState struct {
	Present  bool       `json:"present"`
	Modified *time.Time `json:"modified,omitempty"`
	Bytes    int64      `json:"bytes,omitempty"`
}

// HealthService reports process and data health
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
}

// NewHealthService creates a health service
func NewHealthService(version string, paths *config.Paths) *HealthService {
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
	}
}

// Check returns the current health status. The process is degraded
// rather than unhealthy when pipeline outputs are missing; the API
// still serves runs and health.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data := map[string]DataFileState{
		"scored_profiles": fileState(s.paths.ScoredCSV),
		"cohort_summary":  fileState(s.paths.CohortCSV),
		"timeseries":      fileState(s.paths.TimeseriesCSV),
	}

	status := "healthy"
	if !data["scored_profiles"].Present {
		status = "degraded"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]any{
			"go_version":  runtime.Version(),
			"goroutines":  runtime.NumGoroutine(),
			"alloc_bytes": m.Alloc,
		},
		Data: data,
	}
}

func fileState(path string) DataFileState {
	info, err := os.Stat(path)
	if err != nil {
		return DataFileState{}
	}
	mod := info.ModTime()
	return DataFileState{Present: true, Modified: &mod, Bytes: info.Size()}
}
