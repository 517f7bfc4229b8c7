package operations

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"npopulse/internal/config"
	"npopulse/internal/exporter"
	"npopulse/internal/filings"
	"npopulse/internal/infrastructure"
	"npopulse/internal/momentum"
	"npopulse/internal/registry"
	"npopulse/internal/scoring"
)

// Step IDs in pipeline order
const (
	StepIDGeoFilter  = "geo_filter"
	StepIDClassify   = "classify"
	StepIDFetch      = "fetch"
	StepIDFlatten    = "flatten"
	StepIDTrajectory = "trajectory"
	StepIDMomentum   = "momentum"
	StepIDScore      = "score"
)

// Artifact keys for in-memory hand-off between steps
const (
	artifactMappedOrgs = "mapped_orgs"
	artifactTimeseries = "timeseries"
	artifactProfiles   = "momentum_profiles"
)

// Fetcher is the filings client surface the fetch step needs
type Fetcher interface {
	FetchAll(ctx context.Context, eins []string) (filings.FetchResult, error)
}

// Deps bundles everything the pipeline steps share
type Deps struct {
	Config  *config.Config
	Paths   *config.Paths
	Metrics *infrastructure.Metrics
	Logger  *slog.Logger

	// Fetcher overrides the default filings client, for tests
	Fetcher Fetcher
}

// NewSteps builds the full pipeline in run order
func NewSteps(deps Deps) []Step {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return []Step{
		&GeoFilterStep{deps: deps},
		&ClassifyStep{deps: deps},
		&FetchStep{deps: deps},
		&FlattenStep{deps: deps},
		&TrajectoryStep{deps: deps},
		&MomentumStep{deps: deps},
		&ScoreStep{deps: deps},
	}
}

// RegisterAll registers the full pipeline with a manager
func RegisterAll(m *Manager, deps Deps) error {
	for _, step := range NewSteps(deps) {
		if err := m.Register(step); err != nil {
			return err
		}
	}
	return nil
}

func requireFile(stepID, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input file for %s not found: %s", stepID, path)
	}
	return nil
}

// GeoFilterStep reduces the registry extract to the configured
// geography and writes nothing; the filtered slice is handed to the
// classify step in memory.
type GeoFilterStep struct {
	deps Deps
}

func (s *GeoFilterStep) ID() string   { return StepIDGeoFilter }
func (s *GeoFilterStep) Name() string { return "Geographic Filter" }

func (s *GeoFilterStep) Validate(state *OperationState) error {
	return requireFile(s.ID(), s.deps.Paths.RegistryCSV)
}

func (s *GeoFilterStep) Execute(ctx context.Context, state *OperationState) error {
	orgs, err := registry.LoadExtract(s.deps.Paths.RegistryCSV)
	if err != nil {
		return err
	}

	filter := s.geoFilter()
	filtered := filter.Filter(ctx, orgs)
	state.SetArtifact(artifactMappedOrgs, filtered)
	return nil
}

func (s *GeoFilterStep) geoFilter() *registry.GeoFilter {
	p := s.deps.Config.Pipeline
	if len(p.Cities) == 0 {
		return registry.DefaultGeoFilter(s.deps.Logger)
	}
	return registry.NewGeoFilter(p.State, p.Cities, p.ZIPPrefixes, s.deps.Logger)
}

// ClassifyStep assigns sector labels and size buckets, then persists
// the mapped registry CSV.
type ClassifyStep struct {
	deps Deps
}

func (s *ClassifyStep) ID() string   { return StepIDClassify }
func (s *ClassifyStep) Name() string { return "Sector and Size Classification" }

func (s *ClassifyStep) Validate(state *OperationState) error {
	if _, ok := state.GetArtifact(artifactMappedOrgs); ok {
		return nil
	}
	return requireFile(s.ID(), s.deps.Paths.RegistryCSV)
}

func (s *ClassifyStep) Execute(ctx context.Context, state *OperationState) error {
	orgs, err := s.inputOrgs(ctx, state)
	if err != nil {
		return err
	}

	sectors, err := registry.LoadSectorMap(s.deps.Config.Pipeline.SectorMapFile)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "sector map unavailable, labeling all sectors Unknown",
			slog.String("error", err.Error()))
		sectors = registry.SectorMap{}
	}

	classified := registry.NewClassifier(sectors, s.deps.Logger).Classify(ctx, orgs)
	if err := registry.SaveMapped(classified, s.deps.Paths.MappedCSV); err != nil {
		return err
	}

	state.SetArtifact(artifactMappedOrgs, classified)
	return nil
}

// inputOrgs takes the filtered slice from the previous step when
// present; running standalone falls back to filtering the raw extract.
func (s *ClassifyStep) inputOrgs(ctx context.Context, state *OperationState) ([]registry.Organization, error) {
	if v, ok := state.GetArtifact(artifactMappedOrgs); ok {
		if orgs, ok := v.([]registry.Organization); ok {
			return orgs, nil
		}
	}

	orgs, err := registry.LoadExtract(s.deps.Paths.RegistryCSV)
	if err != nil {
		return nil, err
	}
	filter := (&GeoFilterStep{deps: s.deps}).geoFilter()
	return filter.Filter(ctx, orgs), nil
}

// FetchStep downloads filing-history documents for every mapped
// organization into the cache directory.
type FetchStep struct {
	deps Deps
}

func (s *FetchStep) ID() string   { return StepIDFetch }
func (s *FetchStep) Name() string { return "Fetch Filing Histories" }

func (s *FetchStep) Validate(state *OperationState) error {
	if _, ok := state.GetArtifact(artifactMappedOrgs); ok {
		return nil
	}
	return requireFile(s.ID(), s.deps.Paths.MappedCSV)
}

func (s *FetchStep) Execute(ctx context.Context, state *OperationState) error {
	orgs, err := mappedOrgs(state, s.deps.Paths)
	if err != nil {
		return err
	}

	eins := make([]string, 0, len(orgs))
	for _, org := range orgs {
		eins = append(eins, org.EIN)
	}

	fetcher := s.deps.Fetcher
	if fetcher == nil {
		fetcher = filings.NewClient(
			s.deps.Config.Fetch.BaseURL,
			s.deps.Paths.CacheDir,
			s.deps.Logger,
			filings.WithRateLimit(s.deps.Config.Fetch.RatePerSecond),
			filings.WithMetrics(s.deps.Metrics),
		)
	}

	_, err = fetcher.FetchAll(ctx, eins)
	return err
}

// FlattenStep converts cached filing documents into the long-format
// financial time series CSV.
type FlattenStep struct {
	deps Deps
}

func (s *FlattenStep) ID() string   { return StepIDFlatten }
func (s *FlattenStep) Name() string { return "Flatten Financials" }

func (s *FlattenStep) Validate(state *OperationState) error {
	return requireFile(s.ID(), s.deps.Paths.CacheDir)
}

func (s *FlattenStep) Execute(ctx context.Context, state *OperationState) error {
	flattener := filings.NewFlattener(s.deps.Paths.CacheDir, s.deps.Logger)
	if n := s.deps.Config.Fetch.MaxConcurrency; n > 0 {
		flattener.SetMaxConcurrency(n)
	}

	records, err := flattener.Flatten(ctx)
	if err != nil {
		return err
	}

	if err := filings.SaveTimeseries(records, s.deps.Paths.TimeseriesCSV); err != nil {
		return err
	}

	state.SetArtifact(artifactTimeseries, records)
	return nil
}

// TrajectoryStep pivots the time series into per-organization
// trajectory rows over the configured year window.
type TrajectoryStep struct {
	deps Deps
}

func (s *TrajectoryStep) ID() string   { return StepIDTrajectory }
func (s *TrajectoryStep) Name() string { return "Build Trajectories" }

func (s *TrajectoryStep) Validate(state *OperationState) error {
	if _, ok := state.GetArtifact(artifactTimeseries); ok {
		return nil
	}
	return requireFile(s.ID(), s.deps.Paths.TimeseriesCSV)
}

func (s *TrajectoryStep) Execute(ctx context.Context, state *OperationState) error {
	records, err := timeseries(state, s.deps.Paths)
	if err != nil {
		return err
	}

	window := momentum.YearWindow{
		Start: s.deps.Config.Pipeline.WindowStart,
		End:   s.deps.Config.Pipeline.WindowEnd,
	}
	rows := momentum.NewBuilder(window, s.deps.Logger).Build(ctx, records)
	return momentum.SaveTrajectories(rows, window, s.deps.Paths.TrajectoryCSV)
}

// MomentumStep classifies every organization's revenue momentum and
// persists the classification CSV.
type MomentumStep struct {
	deps Deps
}

func (s *MomentumStep) ID() string   { return StepIDMomentum }
func (s *MomentumStep) Name() string { return "Momentum Classification" }

func (s *MomentumStep) Validate(state *OperationState) error {
	if _, ok := state.GetArtifact(artifactTimeseries); ok {
		return nil
	}
	return requireFile(s.ID(), s.deps.Paths.TimeseriesCSV)
}

func (s *MomentumStep) Execute(ctx context.Context, state *OperationState) error {
	records, err := timeseries(state, s.deps.Paths)
	if err != nil {
		return err
	}

	classifier := momentum.NewClassifier(s.deps.Logger)
	classifier.SetMetrics(s.deps.Metrics)
	profiles := classifier.Classify(ctx, records)

	if err := momentum.SaveProfiles(profiles, s.deps.Paths.MomentumCSV); err != nil {
		return err
	}

	state.SetArtifact(artifactProfiles, profiles)
	return nil
}

// ScoreStep merges the classified registry, momentum profiles and
// latest-year snapshots, scores every organization and exports the
// report artifacts.
type ScoreStep struct {
	deps Deps
}

func (s *ScoreStep) ID() string   { return StepIDScore }
func (s *ScoreStep) Name() string { return "Merge and Score" }

func (s *ScoreStep) Validate(state *OperationState) error {
	if _, ok := state.GetArtifact(artifactProfiles); ok {
		return nil
	}
	return requireFile(s.ID(), s.deps.Paths.MomentumCSV)
}

func (s *ScoreStep) Execute(ctx context.Context, state *OperationState) error {
	orgs, err := mappedOrgs(state, s.deps.Paths)
	if err != nil {
		return err
	}

	profiles, err := momentumProfiles(state, s.deps.Paths)
	if err != nil {
		return err
	}

	records, err := timeseries(state, s.deps.Paths)
	if err != nil {
		return err
	}

	merged := scoring.NewMerger(s.deps.Logger).Merge(ctx, orgs, profiles, records)
	if err := scoring.SaveProfiles(merged, s.deps.Paths.ProfilesCSV); err != nil {
		return err
	}

	scoring.ScoreAll(merged)
	if s.deps.Metrics != nil && s.deps.Metrics.OrgsScored != nil {
		s.deps.Metrics.OrgsScored.Add(ctx, int64(len(merged)))
	}

	if err := scoring.SaveScored(merged, s.deps.Paths.ScoredCSV); err != nil {
		return err
	}

	cohort := scoring.Summarize(merged)
	if err := scoring.SaveCohort(cohort, s.deps.Paths.CohortCSV); err != nil {
		return err
	}

	return exporter.NewReportExporter(s.deps.Paths, s.deps.Logger).Export(ctx, merged, cohort)
}

// mappedOrgs prefers the in-memory artifact, falling back to the
// mapped CSV for standalone step runs.
func mappedOrgs(state *OperationState, paths *config.Paths) ([]registry.Organization, error) {
	if v, ok := state.GetArtifact(artifactMappedOrgs); ok {
		if orgs, ok := v.([]registry.Organization); ok {
			return orgs, nil
		}
	}
	return registry.LoadExtract(paths.MappedCSV)
}

func timeseries(state *OperationState, paths *config.Paths) ([]filings.FilingRecord, error) {
	if v, ok := state.GetArtifact(artifactTimeseries); ok {
		if records, ok := v.([]filings.FilingRecord); ok {
			return records, nil
		}
	}
	return filings.LoadTimeseries(paths.TimeseriesCSV)
}

func momentumProfiles(state *OperationState, paths *config.Paths) ([]momentum.Profile, error) {
	if v, ok := state.GetArtifact(artifactProfiles); ok {
		if profiles, ok := v.([]momentum.Profile); ok {
			return profiles, nil
		}
	}
	return momentum.LoadProfiles(paths.MomentumCSV)
}
