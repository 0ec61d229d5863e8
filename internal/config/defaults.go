package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultProviderBaseURL           = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	DefaultProviderTimeout           = 30 * time.Second
	DefaultProviderRequestsPerSecond = 5.0
	DefaultProviderBurst             = 1
	DefaultProviderUserAgent         = "compoundrank/1.0"

	DefaultInputFile        = "input_molecules.txt"
	DefaultMatchPolicy      = "last"
	DefaultUnresolvedPolicy = "abort"

	DefaultRankingRule = "lipinski_rule"

	DefaultOutputDir       = "."
	DefaultPropertiesFile  = "Compounds.xlsx"
	DefaultPropertiesSheet = "Properties"
	DefaultRankingFile     = "Compounds_ranking.xlsx"
	DefaultRankingSheet    = "Ranking"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultMetricsNamespace = "compoundrank"
	DefaultMetricsTextfile  = "compoundrank.prom"

	DefaultMinIOPrefix = "reports"
)

// DefaultProperties is the explicit selection used when all_properties is
// switched off and no list is configured.
var DefaultProperties = []string{
	"xlogp",
	"isomeric_smiles",
	"h_bond_acceptor_count",
	"molecular_weight",
	"canonical_smiles",
	"rotatable_bond_count",
	"molecular_formula",
	"h_bond_donor_count",
}

// DefaultRules returns the built-in drug-likeness rule set.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{
			Name:      DefaultRankingRule,
			Threshold: 3,
			Criteria: []CriterionConfig{
				{Column: "molecular_weight", Low: 0, High: 500},
				{Column: "xlogp", Low: 0, High: 5},
				{Column: "h_bond_acceptor_count", Low: 0, High: 10},
				{Column: "h_bond_donor_count", Low: 0, High: 5},
			},
		},
	}
}

// registerDefaults seeds v with every scalar default so that COMPOUNDRANK_*
// environment variables are visible to Unmarshal even without a config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("provider.base_url", DefaultProviderBaseURL)
	v.SetDefault("provider.timeout", DefaultProviderTimeout)
	v.SetDefault("provider.requests_per_second", DefaultProviderRequestsPerSecond)
	v.SetDefault("provider.burst", DefaultProviderBurst)
	v.SetDefault("provider.user_agent", DefaultProviderUserAgent)

	v.SetDefault("pipeline.input_file", DefaultInputFile)
	v.SetDefault("pipeline.all_properties", true)
	v.SetDefault("pipeline.properties", DefaultProperties)
	v.SetDefault("pipeline.match_policy", DefaultMatchPolicy)
	v.SetDefault("pipeline.unresolved_policy", DefaultUnresolvedPolicy)

	v.SetDefault("ranking.rule", DefaultRankingRule)

	v.SetDefault("export.output_dir", DefaultOutputDir)
	v.SetDefault("export.properties_file", DefaultPropertiesFile)
	v.SetDefault("export.properties_sheet", DefaultPropertiesSheet)
	v.SetDefault("export.ranking_file", DefaultRankingFile)
	v.SetDefault("export.ranking_sheet", DefaultRankingSheet)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stderr"})

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("storage.minio.enabled", false)
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "")
	v.SetDefault("storage.minio.prefix", DefaultMinIOPrefix)
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.region", "")
}

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set by the caller are left unchanged so explicit configuration
// always wins.  Booleans cannot be told apart from "unset" and are defaulted
// by the loader instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Provider ──────────────────────────────────────────────────────────────
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}
	if cfg.Provider.RequestsPerSecond == 0 {
		cfg.Provider.RequestsPerSecond = DefaultProviderRequestsPerSecond
	}
	if cfg.Provider.Burst == 0 {
		cfg.Provider.Burst = DefaultProviderBurst
	}
	if cfg.Provider.UserAgent == "" {
		cfg.Provider.UserAgent = DefaultProviderUserAgent
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.InputFile == "" {
		cfg.Pipeline.InputFile = DefaultInputFile
	}
	if cfg.Pipeline.Properties == nil {
		cfg.Pipeline.Properties = append([]string(nil), DefaultProperties...)
	}
	if cfg.Pipeline.MatchPolicy == "" {
		cfg.Pipeline.MatchPolicy = DefaultMatchPolicy
	}
	if cfg.Pipeline.UnresolvedPolicy == "" {
		cfg.Pipeline.UnresolvedPolicy = DefaultUnresolvedPolicy
	}

	// ── Rules ─────────────────────────────────────────────────────────────────
	if len(cfg.Rules) == 0 {
		cfg.Rules = DefaultRules()
	}
	if cfg.Ranking.Rule == "" {
		cfg.Ranking.Rule = DefaultRankingRule
	}

	// ── Export ────────────────────────────────────────────────────────────────
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = DefaultOutputDir
	}
	if cfg.Export.PropertiesFile == "" {
		cfg.Export.PropertiesFile = DefaultPropertiesFile
	}
	if cfg.Export.PropertiesSheet == "" {
		cfg.Export.PropertiesSheet = DefaultPropertiesSheet
	}
	if cfg.Export.RankingFile == "" {
		cfg.Export.RankingFile = DefaultRankingFile
	}
	if cfg.Export.RankingSheet == "" {
		cfg.Export.RankingSheet = DefaultRankingSheet
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Enabled && cfg.Metrics.TextfilePath == "" {
		cfg.Metrics.TextfilePath = DefaultMetricsTextfile
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.MinIO.Prefix == "" {
		cfg.Storage.MinIO.Prefix = DefaultMinIOPrefix
	}
}

// Default returns a fully defaulted Config, as used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Pipeline.AllProperties = true
	ApplyDefaults(cfg)
	return cfg
}
