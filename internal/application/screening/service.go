// Package screening runs the compound screening pipeline: names are resolved
// into a property report, which is then scored and ranked.
package screening

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/compoundrank/internal/config"
	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/internal/domain/rule"
	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/compoundrank/internal/infrastructure/storage/minio"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Report labels used in metrics and logs.
const (
	ReportProperties = "properties"
	ReportRanking    = "ranking"
)

// Service defines the screening operations.
type Service interface {
	Normalize(ctx context.Context, names []string) (*NormalizeResult, error)
	Rank(ctx context.Context) (*RankResult, error)
	Run(ctx context.Context, names []string) (*RunResult, error)
}

// TableStore writes and reads report sheets.
type TableStore interface {
	Export(ctx context.Context, t *table.Table, path, sheet string) error
	ReadTable(ctx context.Context, path, sheet string) (*table.Table, error)
}

// NormalizeResult describes the properties report.
type NormalizeResult struct {
	Path       string
	Table      *table.Table
	Unresolved []string
	Duplicates []string
	// DroppedProperties counts configured properties missing from the catalog.
	DroppedProperties int64
}

// RankResult describes the ranking report.
type RankResult struct {
	Path    string
	Scored  *table.Table
	Ranking *table.Table
}

// RunResult is the outcome of a full run.
type RunResult struct {
	RunID     string
	Normalize *NormalizeResult
	Rank      *RankResult
	Published []minio.PublishedObject
}

// Dependencies holds everything the service needs.  Publisher and Metrics
// are optional.
type Dependencies struct {
	Config    *config.Config
	Provider  compound.Provider
	Store     TableStore
	Catalog   *compound.Catalog
	Publisher minio.ReportPublisher
	Metrics   *prometheus.PipelineMetrics
	Logger    logging.Logger
}

type serviceImpl struct {
	cfg         *config.Config
	catalog     *compound.Catalog
	collector   *compound.Collector
	store       TableStore
	rules       []rule.Rule
	rankingRule rule.Rule
	publisher   minio.ReportPublisher
	metrics     *prometheus.PipelineMetrics
	logger      logging.Logger
}

// NewService validates the configured policies and rules and wires the
// pipeline.
func NewService(deps Dependencies) (Service, error) {
	if deps.Config == nil || deps.Provider == nil || deps.Store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "config, provider and store are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = compound.DefaultCatalog()
	}

	matchPolicy, err := compound.ParseMatchPolicy(deps.Config.Pipeline.MatchPolicy)
	if err != nil {
		return nil, err
	}
	unresolvedPolicy, err := compound.ParseUnresolvedPolicy(deps.Config.Pipeline.UnresolvedPolicy)
	if err != nil {
		return nil, err
	}

	rules, err := RulesFromConfig(deps.Config.Rules)
	if err != nil {
		return nil, err
	}
	var ranking rule.Rule
	found := false
	for _, r := range rules {
		if !r.Reachable() {
			logger.Warn("rule can never approve a compound",
				logging.String("rule", r.Name),
				logging.Int("threshold", r.Threshold),
				logging.Int("criteria", len(r.Criteria)))
		}
		if r.Name == deps.Config.Ranking.Rule {
			ranking, found = r, true
			break
		}
	}
	if !found {
		return nil, errors.InvalidConfig("ranking rule is not configured").WithDetail(deps.Config.Ranking.Rule)
	}

	resolver := compound.NewResolver(deps.Provider, matchPolicy, logger.Named("resolver"))
	return &serviceImpl{
		cfg:         deps.Config,
		catalog:     catalog,
		collector:   compound.NewCollector(resolver, deps.Provider, unresolvedPolicy, logger.Named("collector")),
		store:       deps.Store,
		rules:       rules,
		rankingRule: ranking,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		logger:      logger,
	}, nil
}

// RulesFromConfig converts and validates configured rules.  An empty list
// yields the built-in Lipinski rule.
func RulesFromConfig(cfgs []config.RuleConfig) ([]rule.Rule, error) {
	if len(cfgs) == 0 {
		return []rule.Rule{rule.Lipinski()}, nil
	}
	rules := make([]rule.Rule, 0, len(cfgs))
	for _, rc := range cfgs {
		r := rule.Rule{Name: rc.Name, Threshold: rc.Threshold}
		for _, c := range rc.Criteria {
			r.Criteria = append(r.Criteria, rule.Criterion{
				Column: c.Column,
				Range:  rule.Range{Low: c.Low, High: c.High},
			})
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *serviceImpl) propertiesPath() string {
	return filepath.Join(s.cfg.Export.OutputDir, s.cfg.Export.PropertiesFile)
}

func (s *serviceImpl) rankingPath() string {
	return filepath.Join(s.cfg.Export.OutputDir, s.cfg.Export.RankingFile)
}

// Normalize resolves names and writes the properties report.  Nothing is
// written when collection fails.
func (s *serviceImpl) Normalize(ctx context.Context, names []string) (res *NormalizeResult, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun("normalize", time.Since(start), err) }()

	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no compound names to process")
	}

	sel, selErr := compound.NewSelection(s.catalog, s.cfg.Pipeline.Properties, s.cfg.Pipeline.AllProperties)
	if selErr != nil {
		s.logger.Warn("dropping invalid properties", logging.Err(selErr), logging.Int64("dropped", sel.Dropped()))
	}

	collected, err := s.collector.Build(ctx, names, sel)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordResolution(len(collected.Records)-len(collected.Duplicates), len(collected.Unresolved), len(collected.Duplicates))

	path := s.propertiesPath()
	if err := s.store.Export(ctx, collected.Table, path, s.cfg.Export.PropertiesSheet); err != nil {
		return nil, err
	}
	s.metrics.RecordExport(ReportProperties)
	s.logger.Info("properties report written",
		logging.String("path", path),
		logging.Int("rows", collected.Table.Len()),
		logging.Int("columns", collected.Table.Width()))

	return &NormalizeResult{
		Path:              path,
		Table:             collected.Table,
		Unresolved:        collected.Unresolved,
		Duplicates:        collected.Duplicates,
		DroppedProperties: sel.Dropped(),
	}, nil
}

// Rank reads the properties report, evaluates every configured rule and
// writes the ranking for the ranking rule.
func (s *serviceImpl) Rank(ctx context.Context) (res *RankResult, err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRun("rank", time.Since(start), err) }()

	scored, err := s.store.ReadTable(ctx, s.propertiesPath(), s.cfg.Export.PropertiesSheet)
	if err != nil {
		return nil, err
	}
	for _, r := range s.rules {
		if scored, err = rule.Evaluate(r, scored); err != nil {
			return nil, err
		}
		approved := approvedCount(scored, r)
		s.metrics.RecordRuleEvaluation(r.Name, approved)
		s.logger.Info("rule evaluated",
			logging.String("rule", r.Name),
			logging.Int("threshold", r.Threshold),
			logging.Int("approved", approved),
			logging.Int("compounds", scored.Len()))
	}

	ranking, err := BuildRanking(scored, s.rankingRule)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("ranking assembled", logging.String("table", "\n"+ranking.String()))

	path := s.rankingPath()
	if err := s.store.Export(ctx, ranking, path, s.cfg.Export.RankingSheet); err != nil {
		return nil, err
	}
	s.metrics.RecordExport(ReportRanking)
	s.logger.Info("ranking report written", logging.String("path", path), logging.Int("rows", ranking.Len()))

	return &RankResult{Path: path, Scored: scored, Ranking: ranking}, nil
}

// Run executes Normalize then Rank, publishes both reports when a publisher
// is configured, and flushes metrics.  The first failure stops the run.
func (s *serviceImpl) Run(ctx context.Context, names []string) (*RunResult, error) {
	res := &RunResult{RunID: uuid.NewString()}
	logger := s.logger.With(logging.String("run_id", res.RunID))
	logger.Info("screening run started", logging.Int("names", len(names)))

	err := s.run(ctx, names, res)
	if flushErr := s.flushMetrics(); flushErr != nil {
		if err == nil {
			err = flushErr
		} else {
			logger.Warn("failed to write metrics textfile", logging.Err(flushErr))
		}
	}
	if err != nil {
		logger.Error("screening run failed", logging.Err(err))
		return nil, err
	}
	logger.Info("screening run finished",
		logging.String("properties", res.Normalize.Path),
		logging.String("ranking", res.Rank.Path),
		logging.Int("published", len(res.Published)))
	return res, nil
}

func (s *serviceImpl) run(ctx context.Context, names []string, res *RunResult) error {
	var err error
	if res.Normalize, err = s.Normalize(ctx, names); err != nil {
		return err
	}
	if res.Rank, err = s.Rank(ctx); err != nil {
		return err
	}
	if s.publisher != nil {
		if res.Published, err = s.publisher.Publish(ctx, res.RunID, res.Normalize.Path, res.Rank.Path); err != nil {
			return err
		}
	}
	return nil
}

func (s *serviceImpl) flushMetrics() error {
	if s.metrics == nil || !s.cfg.Metrics.Enabled {
		return nil
	}
	return s.metrics.WriteTextfile(s.cfg.Metrics.TextfilePath)
}
