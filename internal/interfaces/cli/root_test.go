package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/internal/application/screening"
	"github.com/turtacn/compoundrank/internal/config"
	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Normalize(ctx context.Context, names []string) (*screening.NormalizeResult, error) {
	args := m.Called(ctx, names)
	res, _ := args.Get(0).(*screening.NormalizeResult)
	return res, args.Error(1)
}

func (m *mockService) Rank(ctx context.Context) (*screening.RankResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*screening.RankResult)
	return res, args.Error(1)
}

func (m *mockService) Run(ctx context.Context, names []string) (*screening.RunResult, error) {
	args := m.Called(ctx, names)
	res, _ := args.Get(0).(*screening.RunResult)
	return res, args.Error(1)
}

type harness struct {
	svc    *mockService
	cfg    *config.Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	cmd    *cobra.Command
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("COMPOUNDRANK_LOG_LEVEL", "error")
	h := &harness{svc: new(mockService), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.cmd = NewRootCommand(func(cfg *config.Config, _ logging.Logger) (screening.Service, error) {
		h.cfg = cfg
		return h.svc, nil
	})
	h.cmd.SetOut(h.stdout)
	h.cmd.SetErr(h.stderr)
	return h
}

func (h *harness) execute(args ...string) error {
	h.cmd.SetArgs(args)
	return h.cmd.ExecuteContext(context.Background())
}

func rankingTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New("cid", "normalized_name", "lipinski_rule_score", "lipinski_rule_approved")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(2244, "Aspirin", 4, true))
	require.NoError(t, tbl.AppendRow(5793, "Dextrose", 3, true))
	return tbl
}

func runResult(t *testing.T) *screening.RunResult {
	return &screening.RunResult{
		RunID:     "run-1",
		Normalize: &screening.NormalizeResult{Path: "Compounds.xlsx", Unresolved: []string{"BG8967"}},
		Rank:      &screening.RankResult{Path: "Compounds_ranking.xlsx", Ranking: rankingTable(t)},
	}
}

func TestRoot_UsageErrors(t *testing.T) {
	cases := map[string][]string{
		"no arguments":   {},
		"two arguments":  {"X", "input_molecules.txt"},
		"wrong argument": {"molecules.csv"},
		"unknown flag":   {"--frobnicate", "X"},
		"bad output":     {"-o", "yaml", "X"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			err := h.execute(args...)
			require.Error(t, err)
			assert.Equal(t, errors.ExitUsage, errors.ExitCode(err), err.Error())
			h.svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestRoot_FallbackBatch(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Run", mock.Anything, FallbackNames).Return(runResult(t), nil).Once()

	require.NoError(t, h.execute("x"))
	h.svc.AssertExpectations(t)

	out := h.stdout.String()
	assert.Contains(t, out, "lipinski_rule_score")
	assert.Contains(t, out, "Aspirin")
	assert.Contains(t, out, "True")
	assert.Contains(t, out, "unresolved: BG8967")
	assert.Contains(t, out, "OK: ranking written to Compounds_ranking.xlsx")
}

func TestRoot_InputFile(t *testing.T) {
	path := writeInput(t, "Aspirin\n\n Dextrose \n")
	t.Setenv("COMPOUNDRANK_PIPELINE_INPUT_FILE", path)

	h := newHarness(t)
	h.svc.On("Run", mock.Anything, []string{"Aspirin", "Dextrose"}).Return(runResult(t), nil).Once()

	require.NoError(t, h.execute(path))
	h.svc.AssertExpectations(t)
}

func TestRoot_MissingInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input_molecules.txt")
	t.Setenv("COMPOUNDRANK_PIPELINE_INPUT_FILE", path)

	h := newHarness(t)
	err := h.execute(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInputNotFound))
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(err))
	h.svc.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestRoot_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t)
	h.svc.On("Run", mock.Anything, mock.Anything).Return(runResult(t), nil).Once()

	require.NoError(t, h.execute("--on-unresolved", "skip", "--match-policy", "lowest_cid", "--output-dir", dir, "X"))
	require.NotNil(t, h.cfg)
	assert.Equal(t, "skip", h.cfg.Pipeline.UnresolvedPolicy)
	assert.Equal(t, "lowest_cid", h.cfg.Pipeline.MatchPolicy)
	assert.Equal(t, dir, h.cfg.Export.OutputDir)
	assert.Equal(t, "error", h.cfg.Log.Level)
}

func TestRoot_VerboseSetsDebug(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Run", mock.Anything, mock.Anything).Return(runResult(t), nil).Once()

	require.NoError(t, h.execute("-v", "X"))
	assert.Equal(t, "debug", h.cfg.Log.Level)
}

func TestRoot_InvalidPolicyIsConfigError(t *testing.T) {
	h := newHarness(t)
	err := h.execute("--match-policy", "random", "X")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRoot_RunFailurePropagates(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Run", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeCompoundNotFound, "compound not found").WithDetail("BG8967")).Once()

	err := h.execute("X")
	require.Error(t, err)
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(err))
	assert.Empty(t, h.stdout.String())
}

func TestRoot_JSONOutput(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Run", mock.Anything, mock.Anything).Return(runResult(t), nil).Once()

	require.NoError(t, h.execute("-o", "json", "X"))

	var summary Summary
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, []string{"BG8967"}, summary.Unresolved)
	require.Len(t, summary.Ranking, 2)
	assert.Equal(t, "Aspirin", summary.Ranking[0]["normalized_name"])
	assert.Equal(t, float64(4), summary.Ranking[0]["lipinski_rule_score"])
}

func TestNormalizeCommand(t *testing.T) {
	h := newHarness(t)
	tbl, err := table.New("cid")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow(1))
	h.svc.On("Normalize", mock.Anything, FallbackNames).
		Return(&screening.NormalizeResult{Path: "Compounds.xlsx", Table: tbl}, nil).Once()

	require.NoError(t, h.execute("normalize", "X"))
	assert.Contains(t, h.stdout.String(), "OK: 1 compounds written to Compounds.xlsx")
	h.svc.AssertNotCalled(t, "Rank", mock.Anything)
}

func TestRankCommand(t *testing.T) {
	h := newHarness(t)
	h.svc.On("Rank", mock.Anything).
		Return(&screening.RankResult{Path: "Compounds_ranking.xlsx", Ranking: rankingTable(t)}, nil).Once()

	require.NoError(t, h.execute("rank"))
	assert.Contains(t, h.stdout.String(), "Dextrose")

	h2 := newHarness(t)
	err := h2.execute("rank", "extra")
	require.Error(t, err)
	assert.Equal(t, errors.ExitUsage, errors.ExitCode(err))
}

func TestPrintError(t *testing.T) {
	cmd := NewRootCommand(nil)
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)

	PrintError(cmd, nil)
	assert.Empty(t, stderr.String())

	PrintError(cmd, errors.New(errors.ErrCodeUsage, "bad argument"))
	assert.Contains(t, stderr.String(), "Error: ")
	assert.Contains(t, stderr.String(), "Usage: compoundrank")
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"cid", "name"}, [][]string{{"2244", "Aspirin"}, {"1", ""}})
	assert.Equal(t, "cid   name   \n----  -------\n2244  Aspirin\n1            \n", out)
	assert.Empty(t, FormatTable(nil, nil))
}
