package services

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"npopulse/internal/config"
	"npopulse/internal/scoring"
)

// OrgFilter narrows the scored organization listing. Zero values mean
// no constraint; string matches are case-insensitive.
type OrgFilter struct {
	Sector     string `json:"sector,omitempty"`
	SizeBucket string `json:"size_bucket,omitempty"`
	Class      string `json:"momentum_class,omitempty"`
	TargetFlag string `json:"target_flag,omitempty"`
	MinScore   int    `json:"min_score,omitempty"`
	OnlyHollow bool   `json:"only_hollow,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// OrgPage is one page of filtered scored organizations
type OrgPage struct {
	Organizations []scoring.MasterProfile `json:"organizations"`
	Total         int                     `json:"total"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
}

// SectorSummary aggregates the scored table per sector for the
// dashboard overview.
type SectorSummary struct {
	Sector       string  `json:"sector"`
	OrgCount     int     `json:"org_count"`
	HollowCount  int     `json:"hollow_count"`
	AvgScore     float64 `json:"avg_score"`
	HighPriority int     `json:"high_priority"`
}

// DashboardService serves read access to the scored profile table.
// The table is cached in memory and reloaded when the underlying CSV
// changes on disk.
type DashboardService struct {
	paths  *config.Paths
	logger *slog.Logger

	mu       sync.RWMutex
	profiles []scoring.MasterProfile
	loadedAt time.Time
	fileMod  time.Time
}

// NewDashboardService creates a dashboard data service
func NewDashboardService(paths *config.Paths, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		paths:  paths,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// ListOrganizations returns a filtered, paginated view of the scored
// table. The default page size is 50.
func (s *DashboardService) ListOrganizations(ctx context.Context, filter OrgFilter) (*OrgPage, error) {
	profiles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var matched []scoring.MasterProfile
	for _, p := range profiles {
		if filter.matches(p) {
			matched = append(matched, p)
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	page := &OrgPage{
		Total:  len(matched),
		Limit:  limit,
		Offset: offset,
	}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Organizations = matched[offset:end]
	}

	return page, nil
}

// GetOrganization returns one scored profile by EIN
func (s *DashboardService) GetOrganization(ctx context.Context, ein string) (*scoring.MasterProfile, error) {
	profiles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ein = strings.TrimSpace(ein)
	for i := range profiles {
		if profiles[i].Org.EIN == ein {
			return &profiles[i], nil
		}
	}
	return nil, ErrOrganizationNotFound
}

// SectorSummaries aggregates the scored table per sector, ordered by
// descending organization count.
func (s *DashboardService) SectorSummaries(ctx context.Context) ([]SectorSummary, error) {
	profiles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count    int
		hollow   int
		score    int
		priority int
	}
	bySector := make(map[string]*acc)
	for _, p := range profiles {
		a, ok := bySector[p.Org.Sector]
		if !ok {
			a = &acc{}
			bySector[p.Org.Sector] = a
		}
		a.count++
		a.score += p.PriorityScore
		if p.IsHollow {
			a.hollow++
		}
		if p.TargetFlag == scoring.FlagHighPriority {
			a.priority++
		}
	}

	summaries := make([]SectorSummary, 0, len(bySector))
	for sector, a := range bySector {
		summaries = append(summaries, SectorSummary{
			Sector:       sector,
			OrgCount:     a.count,
			HollowCount:  a.hollow,
			AvgScore:     float64(a.score) / float64(a.count),
			HighPriority: a.priority,
		})
	}

	sortSummaries(summaries)
	return summaries, nil
}

// Cohort returns the sector x size x momentum grid. It is recomputed
// from the cached table rather than re-read from the cohort CSV so
// both views always agree.
func (s *DashboardService) Cohort(ctx context.Context) ([]scoring.CohortCell, error) {
	profiles, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.Summarize(profiles), nil
}

// load returns the cached scored table, reloading when the CSV on
// disk is newer than the cache.
func (s *DashboardService) load(ctx context.Context) ([]scoring.MasterProfile, error) {
	info, err := os.Stat(s.paths.ScoredCSV)
	if err != nil {
		return nil, ErrNoScoredData
	}

	s.mu.RLock()
	fresh := !s.loadedAt.IsZero() && !info.ModTime().After(s.fileMod)
	profiles := s.profiles
	s.mu.RUnlock()
	if fresh {
		return profiles, nil
	}

	loaded, err := scoring.LoadScored(s.paths.ScoredCSV)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.profiles = loaded
	s.loadedAt = time.Now()
	s.fileMod = info.ModTime()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "reloaded scored table",
		slog.Int("organizations", len(loaded)),
		slog.Time("file_modified", info.ModTime()),
	)

	return loaded, nil
}

func (f OrgFilter) matches(p scoring.MasterProfile) bool {
	if !matchFold(f.Sector, p.Org.Sector) {
		return false
	}
	if !matchFold(f.SizeBucket, string(p.Org.SizeBucket)) {
		return false
	}
	if !matchFold(f.Class, string(p.Momentum.Class)) {
		return false
	}
	if !matchFold(f.TargetFlag, string(p.TargetFlag)) {
		return false
	}
	if p.PriorityScore < f.MinScore {
		return false
	}
	if f.OnlyHollow && !p.IsHollow {
		return false
	}
	return true
}

func matchFold(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func sortSummaries(summaries []SectorSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].OrgCount != summaries[j].OrgCount {
			return summaries[i].OrgCount > summaries[j].OrgCount
		}
		return summaries[i].Sector < summaries[j].Sector
	})
}
