// Package config defines the configuration structures for compoundrank.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ProviderConfig holds the PubChem PUG-REST client tunables.
type ProviderConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// PipelineConfig controls how compound names become a property table.
type PipelineConfig struct {
	InputFile        string   `mapstructure:"input_file"`
	AllProperties    bool     `mapstructure:"all_properties"`
	Properties       []string `mapstructure:"properties"`
	MatchPolicy      string   `mapstructure:"match_policy"`      // "last" | "first" | "lowest_cid"
	UnresolvedPolicy string   `mapstructure:"unresolved_policy"` // "abort" | "skip"
}

// CriterionConfig is one inclusive range over a table column.
type CriterionConfig struct {
	Column string  `mapstructure:"column"`
	Low    float64 `mapstructure:"low"`
	High   float64 `mapstructure:"high"`
}

// RuleConfig declares a scoring rule.
type RuleConfig struct {
	Name      string            `mapstructure:"name"`
	Threshold int               `mapstructure:"threshold"`
	Criteria  []CriterionConfig `mapstructure:"criteria"`
}

// RankingConfig names the rule whose score orders the ranking report.
type RankingConfig struct {
	Rule string `mapstructure:"rule"`
}

// ExportConfig holds report file and sheet names.
type ExportConfig struct {
	OutputDir       string `mapstructure:"output_dir"`
	PropertiesFile  string `mapstructure:"properties_file"`
	PropertiesSheet string `mapstructure:"properties_sheet"`
	RankingFile     string `mapstructure:"ranking_file"`
	RankingSheet    string `mapstructure:"ranking_sheet"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
	Namespace    string `mapstructure:"namespace"`
}

// MinIOConfig holds MinIO / S3-compatible report publication parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// StorageConfig groups object-storage backends.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Rules    []RuleConfig   `mapstructure:"rules"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// Rule returns the configured rule called name.
func (c *Config) Rule(name string) (RuleConfig, bool) {
	for _, r := range c.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return RuleConfig{}, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Provider
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be > 0, got %s", c.Provider.Timeout)
	}
	if c.Provider.RequestsPerSecond <= 0 {
		return fmt.Errorf("provider.requests_per_second must be > 0, got %g", c.Provider.RequestsPerSecond)
	}
	if c.Provider.Burst < 1 {
		return fmt.Errorf("provider.burst must be ≥ 1, got %d", c.Provider.Burst)
	}

	// Pipeline
	if strings.TrimSpace(c.Pipeline.InputFile) == "" {
		return fmt.Errorf("pipeline.input_file is required")
	}
	switch c.Pipeline.MatchPolicy {
	case "last", "first", "lowest_cid":
	default:
		return fmt.Errorf("pipeline.match_policy %q is invalid; expected last|first|lowest_cid", c.Pipeline.MatchPolicy)
	}
	switch c.Pipeline.UnresolvedPolicy {
	case "abort", "skip":
	default:
		return fmt.Errorf("pipeline.unresolved_policy %q is invalid; expected abort|skip", c.Pipeline.UnresolvedPolicy)
	}

	// Rules
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("rules[%d].name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("rules[%d].name %q is duplicated", i, r.Name)
		}
		seen[r.Name] = true
		if r.Threshold < 0 {
			return fmt.Errorf("rules[%d] %q threshold %d is negative", i, r.Name, r.Threshold)
		}
		for j, cr := range r.Criteria {
			if cr.Column == "" {
				return fmt.Errorf("rules[%d].criteria[%d].column is required", i, j)
			}
			if cr.Low > cr.High {
				return fmt.Errorf("rules[%d].criteria[%d] %q has low %g above high %g", i, j, cr.Column, cr.Low, cr.High)
			}
		}
	}

	// Ranking
	if _, ok := c.Rule(c.Ranking.Rule); !ok {
		return fmt.Errorf("ranking.rule %q does not name a configured rule", c.Ranking.Rule)
	}

	// Export
	if c.Export.PropertiesFile == "" || c.Export.RankingFile == "" {
		return fmt.Errorf("export.properties_file and export.ranking_file are required")
	}
	if c.Export.PropertiesFile == c.Export.RankingFile {
		return fmt.Errorf("export.properties_file and export.ranking_file must differ")
	}
	if c.Export.PropertiesSheet == "" || c.Export.RankingSheet == "" {
		return fmt.Errorf("export.properties_sheet and export.ranking_sheet are required")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics.textfile_path is required when metrics are enabled")
	}

	// Storage
	if m := c.Storage.MinIO; m.Enabled {
		if m.Endpoint == "" {
			return fmt.Errorf("storage.minio.endpoint is required when publication is enabled")
		}
		if m.Bucket == "" {
			return fmt.Errorf("storage.minio.bucket is required when publication is enabled")
		}
	}

	return nil
}
