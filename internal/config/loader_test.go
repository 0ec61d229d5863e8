package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/pkg/errors"
)

const validConfigYAML = `
provider:
  timeout: 10s
  requests_per_second: 2
pipeline:
  all_properties: false
  properties: ["xlogp", "molecular_weight", "h_bond_donor_count", "h_bond_acceptor_count"]
  match_policy: first
rules:
  - name: lipinski_rule
    threshold: 3
    criteria:
      - {column: molecular_weight, low: 0, high: 500}
      - {column: xlogp, low: 0, high: 5}
      - {column: h_bond_acceptor_count, low: 0, high: 10}
      - {column: h_bond_donor_count, low: 0, high: 5}
  - name: veber_rule
    threshold: 2
    criteria:
      - {column: rotatable_bond_count, low: 0, high: 10}
      - {column: tpsa, low: 0, high: 140}
ranking:
  rule: veber_rule
export:
  output_dir: reports
log:
  level: debug
  format: json
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "compoundrank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 2.0, cfg.Provider.RequestsPerSecond)
	assert.Equal(t, DefaultProviderBaseURL, cfg.Provider.BaseURL)
	assert.False(t, cfg.Pipeline.AllProperties)
	assert.Equal(t, []string{"xlogp", "molecular_weight", "h_bond_donor_count", "h_bond_acceptor_count"}, cfg.Pipeline.Properties)
	assert.Equal(t, "first", cfg.Pipeline.MatchPolicy)
	assert.Equal(t, "abort", cfg.Pipeline.UnresolvedPolicy)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "veber_rule", cfg.Ranking.Rule)
	assert.Equal(t, "reports", cfg.Export.OutputDir)
	assert.Equal(t, DefaultRankingSheet, cfg.Export.RankingSheet)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "pipeline: [")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigParseError)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "pipeline:\n  match_policy: random\n")
	_, err := Load(WithConfigPath(path))
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(WithSearchDir(t.TempDir()))
	require.NoError(t, err)
	assert.True(t, cfg.Pipeline.AllProperties)
	assert.Equal(t, DefaultPropertiesFile, cfg.Export.PropertiesFile)
	require.Len(t, cfg.Rules, 1)
}

func TestLoad_SearchDirPicksUpFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(WithSearchDir(filepath.Dir(path)))
	require.NoError(t, err)
	assert.Equal(t, "veber_rule", cfg.Ranking.Rule)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("COMPOUNDRANK_PIPELINE_MATCH_POLICY", "lowest_cid")
	t.Setenv("COMPOUNDRANK_EXPORT_OUTPUT_DIR", "/srv/out")

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)
	assert.Equal(t, "lowest_cid", cfg.Pipeline.MatchPolicy)
	assert.Equal(t, "/srv/out", cfg.Export.OutputDir)
}

func TestLoad_EnvOverrideWithoutFile(t *testing.T) {
	t.Setenv("COMPOUNDRANK_PIPELINE_UNRESOLVED_POLICY", "skip")
	cfg, err := Load(WithSearchDir(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "skip", cfg.Pipeline.UnresolvedPolicy)
}

func TestLoad_OverrideBeatsEnv(t *testing.T) {
	t.Setenv("COMPOUNDRANK_LOG_LEVEL", "warn")
	cfg, err := Load(WithSearchDir(t.TempDir()), WithOverride("log.level", "error"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}
