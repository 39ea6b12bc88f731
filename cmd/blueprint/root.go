package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/napolitain/blueprint-solver/internal/config"
	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/loader"
	"github.com/napolitain/blueprint-solver/internal/logging"
	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/report"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/store"
)

const name = "blueprint"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
)

// app carries state shared by every subcommand.
type app struct {
	v        *viper.Viper
	cfgFile  string
	logLevel string

	noDominance bool
	noBound     bool
	noCutoffs   bool
	noCap       bool
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"input":          "input",
	"workers":        "workers",
	"search-workers": "search.workers",
	"format":         "output",
	"cache":          "cache",
	"top":            "top",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   name,
		Short: "blueprint - robot factory build-order optimizer",
		Long: fmt.Sprintf(`blueprint - robot factory build-order optimizer

Version: %s
Commit:  %s

Finds, for each blueprint, the build order that collects the most geodes
within a fixed number of minutes.`, version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./.blueprint.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringP("input", "i", "", "blueprint file (.txt, .json, .yaml)")
	root.PersistentFlags().Int("workers", 0, "blueprints solved concurrently")
	root.PersistentFlags().Int("search-workers", 0, "workers expanding one frontier")
	root.PersistentFlags().StringP("format", "f", "", "output format (table, json, yaml)")
	root.PersistentFlags().String("cache", "", "SQLite file caching solved runs")
	root.PersistentFlags().BoolVar(&a.noDominance, "no-dominance", false, "disable dominance pruning")
	root.PersistentFlags().BoolVar(&a.noBound, "no-bound", false, "disable upper-bound pruning")
	root.PersistentFlags().BoolVar(&a.noCutoffs, "no-cutoffs", false, "disable last-useful-minute cutoffs")
	root.PersistentFlags().BoolVar(&a.noCap, "no-cap", false, "disable redundant producer caps")

	root.AddCommand(
		a.qualityCmd(),
		a.productCmd(),
		a.solveCmd(),
		a.historyCmd(),
	)
	return root
}

// load resolves configuration for cmd: defaults, config file, environment,
// then any flags the user set. horizonKey names the key --horizon overrides.
func (a *app) load(cmd *cobra.Command, horizonKey string) (*config.Config, error) {
	keys := map[string]string{"horizon": horizonKey}
	for flag, key := range flagKeys {
		keys[flag] = key
	}
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to bind flag "+flag, err)
		}
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, err
	}

	if a.noDominance {
		cfg.Search.Dominance = false
	}
	if a.noBound {
		cfg.Search.Bound = false
	}
	if a.noCutoffs {
		cfg.Search.Cutoffs = false
	}
	if a.noCap {
		cfg.Search.RedundancyCap = false
	}

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
	slog.Debug("configuration loaded",
		"input", cfg.Input,
		"horizon", cfg.Horizon,
		"extended_horizon", cfg.ExtendedHorizon,
		"workers", cfg.Workers,
		"search", cfg.Search,
		"cache", cfg.Cache)
	return cfg, nil
}

func (a *app) blueprints(cfg *config.Config) ([]*models.Blueprint, error) {
	bps, err := loader.LoadBlueprints(cfg.Input)
	if err != nil {
		return nil, err
	}
	if len(bps) == 0 {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest, "no blueprints found",
			map[string]any{"input": cfg.Input})
	}
	return bps, nil
}

// runner builds the scenario runner. The returned close function releases
// the cache, if one was opened.
func (a *app) runner(cfg *config.Config) (*scenario.Runner, func(), error) {
	r := scenario.NewRunner(cfg.SearchConfig(), cfg.Workers)
	if cfg.Cache == "" {
		return r, func() {}, nil
	}
	st, err := store.Open(cfg.Cache)
	if err != nil {
		return nil, nil, cerrors.WrapWithContext(cerrors.ErrCodeInternal, "failed to open cache", err,
			map[string]any{"path": cfg.Cache})
	}
	return r.WithCache(st), func() { _ = st.Close() }, nil
}

func (a *app) writer(cmd *cobra.Command, cfg *config.Config) *report.Writer {
	return report.NewWriter(report.Format(cfg.Output), cmd.OutOrStdout())
}
