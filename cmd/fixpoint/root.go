package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	fixpoint "github.com/njchilds90/gofixpoint"
	"github.com/njchilds90/gofixpoint/internal/config"
	"github.com/njchilds90/gofixpoint/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what PersistentPreRunE loaded to the subcommands.
type app struct {
	verbose    bool
	jsonOut    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fixpoint",
		Short: "Find real roots of f(x) by fixed-point iteration",
		Long: `fixpoint rewrites f(x) = 0 as x = g(x) for every occurrence of x,
seeds the iteration next to the critical points of f and runs one worker
per seed and map. Functions use x as their only variable, e.g. "x**3 - x - 1".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if a.verbose {
				level = "debug"
			}
			logger, err := observability.NewLogger(level, cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")

	root.AddCommand(
		newSolveCmd(a),
		newAnalyzeCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// searcher builds a Searcher from the loaded config.
func (a *app) searcher(rec fixpoint.Recorder) *fixpoint.Searcher {
	opts := fixpoint.DefaultOptions()
	opts.Workers = a.cfg.Search.Workers
	opts.ToleranceScale = a.cfg.Search.ToleranceScale
	opts.Dedupe = a.cfg.Search.Dedupe
	opts.SerializeEval = a.cfg.Search.SerializeEval
	opts.DefaultMaxIter = a.cfg.Search.DefaultMaxIter
	opts.DefaultTolerance = a.cfg.Search.DefaultTolerance
	opts.Digits = a.cfg.Analysis.Digits
	opts.ScanRange = a.cfg.Analysis.ScanRange
	opts.Logger = a.logger
	opts.Recorder = rec
	return fixpoint.NewSearcher(opts)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fixpoint %s\n", version)
		},
	}
}
