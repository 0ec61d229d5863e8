// Package cli implements the compoundrank command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/compoundrank/internal/application/screening"
	"github.com/turtacn/compoundrank/internal/config"
	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	Verbose      bool
	OutputDir    string
	OnUnresolved string
	MatchPolicy  string
	OutputFormat string
}

// ServiceFactory builds the screening service for a loaded configuration.
type ServiceFactory func(cfg *config.Config, logger logging.Logger) (screening.Service, error)

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string

	factory ServiceFactory
}

// Service builds the screening service.
func (c *CLIContext) Service() (screening.Service, error) {
	return c.factory(c.Config, c.Logger)
}

// NewRootCommand creates the root command.  A nil factory wires the real
// PubChem, spreadsheet, metrics and storage stack.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	if factory == nil {
		factory = NewService
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "compoundrank [flags] <" + config.DefaultInputFile + "|X>",
		Short: "Resolve compound names through PubChem and rank them by drug-likeness",
		Long: "compoundrank resolves a batch of compound names through PubChem, writes their\n" +
			"properties to " + config.DefaultPropertiesFile + ", scores them with the configured rules\n" +
			"(Lipinski's rule of five by default) and writes the ranking to " + config.DefaultRankingFile + ".\n\n" +
			"Pass the input file name, or X to use the built-in example batch.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		Args:    exactlyOneInput,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				_ = cliCtx.Logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreening(cmd, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrCodeUsage, "invalid flag")
	})

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./compoundrank.yaml when present)")
	pf.StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.OutputDir, "output-dir", config.DefaultOutputDir, "directory for the report files")
	pf.StringVar(&opts.OnUnresolved, "on-unresolved", config.DefaultUnresolvedPolicy, "unresolved name policy (abort, skip)")
	pf.StringVar(&opts.MatchPolicy, "match-policy", config.DefaultMatchPolicy, "ambiguous name policy (last, first, lowest_cid)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "summary format (text, json)")

	cmd.AddCommand(newNormalizeCmd(), newRankCmd())
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <" + config.DefaultInputFile + "|X>",
		Short: "Resolve names and write the properties report only",
		Args:  exactlyOneInput,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			names, err := loadNames(cliCtx, args[0])
			if err != nil {
				return err
			}
			svc, err := cliCtx.Service()
			if err != nil {
				return err
			}
			res, err := svc.Normalize(cmd.Context(), names)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("%d compounds written to %s", res.Table.Len(), res.Path))
			return nil
		},
	}
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Score the existing properties report and write the ranking",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errors.Newf(errors.ErrCodeUsage, "rank takes no arguments, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			svc, err := cliCtx.Service()
			if err != nil {
				return err
			}
			res, err := svc.Rank(cmd.Context())
			if err != nil {
				return err
			}
			return printRanking(cmd, cliCtx, &Summary{RankingReport: res.Path}, res.Ranking)
		},
	}
}

func exactlyOneInput(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.Newf(errors.ErrCodeUsage, "expected exactly one argument, the input file name or %s; got %d", FallbackToken, len(args))
	}
	return nil
}

// persistentPreRun loads config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory ServiceFactory) error {
	switch opts.OutputFormat {
	case "text", "json":
	default:
		return errors.New(errors.ErrCodeUsage, "output format must be text or json").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "logger initialization failed")
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		factory:      factory,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
// Only flags the user actually set override the lower layers.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	loadOpts := []config.Option{}
	if opts.ConfigPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(opts.ConfigPath))
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loadOpts = append(loadOpts, config.WithOverride("log.level", strings.ToLower(opts.LogLevel)))
	}
	if opts.Verbose {
		loadOpts = append(loadOpts, config.WithOverride("log.level", "debug"))
	}
	if flags.Changed("output-dir") {
		loadOpts = append(loadOpts, config.WithOverride("export.output_dir", opts.OutputDir))
	}
	if flags.Changed("on-unresolved") {
		loadOpts = append(loadOpts, config.WithOverride("pipeline.unresolved_policy", opts.OnUnresolved))
	}
	if flags.Changed("match-policy") {
		loadOpts = append(loadOpts, config.WithOverride("pipeline.match_policy", opts.MatchPolicy))
	}
	return config.Load(loadOpts...)
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

func loadNames(cliCtx *CLIContext, arg string) ([]string, error) {
	names, source, err := ResolveInput(arg, cliCtx.Config.Pipeline.InputFile)
	if err != nil {
		return nil, err
	}
	cliCtx.Logger.Info("compound names loaded", logging.String("source", source), logging.Int("count", len(names)))
	return names, nil
}

func runScreening(cmd *cobra.Command, arg string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	names, err := loadNames(cliCtx, arg)
	if err != nil {
		return err
	}
	svc, err := cliCtx.Service()
	if err != nil {
		return err
	}
	res, err := svc.Run(cmd.Context(), names)
	if err != nil {
		return err
	}

	summary := &Summary{
		RunID:            res.RunID,
		PropertiesReport: res.Normalize.Path,
		RankingReport:    res.Rank.Path,
		Unresolved:       res.Normalize.Unresolved,
		Duplicates:       res.Normalize.Duplicates,
	}
	for _, p := range res.Published {
		summary.Published = append(summary.Published, p.Bucket+"/"+p.ObjectKey)
	}
	return printRanking(cmd, cliCtx, summary, res.Rank.Ranking)
}

// Execute runs the root command with ctx and prints any error to stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand(nil)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// Summary is the machine-readable result of a command.
type Summary struct {
	RunID            string           `json:"run_id,omitempty"`
	PropertiesReport string           `json:"properties_report,omitempty"`
	RankingReport    string           `json:"ranking_report,omitempty"`
	Unresolved       []string         `json:"unresolved,omitempty"`
	Duplicates       []string         `json:"duplicates,omitempty"`
	Published        []string         `json:"published,omitempty"`
	Ranking          []map[string]any `json:"ranking"`
}

func printRanking(cmd *cobra.Command, cliCtx *CLIContext, summary *Summary, ranking *table.Table) error {
	headers := ranking.Columns()
	rows := make([][]string, 0, ranking.Len())
	summary.Ranking = make([]map[string]any, 0, ranking.Len())
	for i := 0; i < ranking.Len(); i++ {
		row := ranking.Row(i)
		cells := make([]string, len(row))
		obj := make(map[string]any, len(row))
		for j, v := range row {
			cells[j] = table.FormatCell(v)
			obj[headers[j]] = v
		}
		rows = append(rows, cells)
		summary.Ranking = append(summary.Ranking, obj)
	}

	if cliCtx.OutputFormat == "json" {
		return printJSON(cmd, summary)
	}
	fmt.Fprint(cmd.OutOrStdout(), FormatTable(headers, rows))
	if len(summary.Unresolved) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "unresolved: %s\n", strings.Join(summary.Unresolved, ", "))
	}
	if summary.PropertiesReport != "" {
		PrintSuccess(cmd, "properties written to "+summary.PropertiesReport)
	}
	PrintSuccess(cmd, "ranking written to "+summary.RankingReport)
	return nil
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
	if errors.IsCode(err, errors.ErrCodeUsage) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Usage: %s\n", cmd.UseLine())
	}
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
