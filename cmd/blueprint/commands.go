package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/report"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/store"
)

func (a *app) qualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Sum of blueprint id times best geode count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, "horizon")
			if err != nil {
				return err
			}
			bps, err := a.blueprints(cfg)
			if err != nil {
				return err
			}
			r, closeCache, err := a.runner(cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			total, outcomes, err := r.QualitySum(cmd.Context(), bps, cfg.Horizon)
			if err != nil {
				return err
			}
			return a.writer(cmd, cfg).WriteSummary(report.Summary{
				Title:    "Quality levels",
				Horizon:  cfg.Horizon,
				Outcomes: outcomes,
				Label:    "quality level sum",
				Total:    total,
			})
		},
	}
	cmd.Flags().Int("horizon", scenario.QualityHorizon, "minutes available")
	return cmd
}

func (a *app) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Product of best geode counts of the leading blueprints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, "extended_horizon")
			if err != nil {
				return err
			}
			bps, err := a.blueprints(cfg)
			if err != nil {
				return err
			}
			r, closeCache, err := a.runner(cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			total, outcomes, err := r.TopProduct(cmd.Context(), bps, cfg.Top, cfg.ExtendedHorizon)
			if err != nil {
				return err
			}
			return a.writer(cmd, cfg).WriteSummary(report.Summary{
				Title:    fmt.Sprintf("First %d blueprints", len(outcomes)),
				Horizon:  cfg.ExtendedHorizon,
				Outcomes: outcomes,
				Label:    "product of geodes",
				Total:    total,
			})
		},
	}
	cmd.Flags().Int("horizon", scenario.ExtendedHorizon, "minutes available")
	cmd.Flags().Int("top", scenario.ExtendedCount, "number of leading blueprints")
	return cmd
}

func (a *app) solveCmd() *cobra.Command {
	var id int
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Best build order for one blueprint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, "horizon")
			if err != nil {
				return err
			}
			bps, err := a.blueprints(cfg)
			if err != nil {
				return err
			}

			bp := bps[0]
			if cmd.Flags().Changed("id") {
				bp = nil
				for _, candidate := range bps {
					if candidate.ID == id {
						bp = candidate
						break
					}
				}
				if bp == nil {
					return cerrors.NewWithContext(cerrors.ErrCodeNotFound,
						fmt.Sprintf("blueprint %d not found", id), map[string]any{"input": cfg.Input})
				}
			}

			r, closeCache, err := a.runner(cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			outcomes, err := r.Run(cmd.Context(), []*models.Blueprint{bp}, cfg.Horizon)
			if err != nil {
				return err
			}
			return a.writer(cmd, cfg).WritePlan(outcomes[0])
		},
	}
	cmd.Flags().Int("horizon", scenario.QualityHorizon, "minutes available")
	cmd.Flags().IntVar(&id, "id", 0, "blueprint id (default: first in the file)")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Recently cached runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load(cmd, "horizon")
			if err != nil {
				return err
			}
			if cfg.Cache == "" {
				return cerrors.New(cerrors.ErrCodeInvalidConfig, "history needs a cache file (--cache or cache: in config)")
			}

			st, err := store.Open(cfg.Cache)
			if err != nil {
				return cerrors.WrapWithContext(cerrors.ErrCodeInternal, "failed to open cache", err,
					map[string]any{"path": cfg.Cache})
			}
			defer st.Close()

			runs, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInternal, "failed to list runs", err)
			}
			return a.writer(cmd, cfg).WriteRuns(runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
