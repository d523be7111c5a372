package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/export"
	"reelsmith/internal/manifest"
	"reelsmith/internal/notifications"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var week int
	var startDate string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a week's manifest as a scheduler CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			weekDir := cfg.WeekDir(week)
			weekManifest, err := manifest.Load(weekDir)
			if err != nil {
				return err
			}

			result, err := export.Export(weekDir, weekManifest, startDate, cfg.Export.Timezone, export.CadencePolicy{
				DailyQuota: cfg.Export.DailyQuota,
				PostTimes:  cfg.Export.PostTimes,
			})
			if err != nil {
				return err
			}

			notifier := notifications.NewService(cfg)
			_ = notifier.NotifyExportCompleted(cmd.Context(), week, result.Exported, result.Skipped)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Export", statusOK,
				fmt.Sprintf("%d exported, %d skipped", result.Exported, result.Skipped), colorize))
			fmt.Fprintln(out, renderStatusLine("CSV", statusInfo, result.CSVPath, colorize))
			return nil
		},
	}

	cmd.Flags().IntVarP(&week, "week", "w", 0, "Week number to export")
	cmd.Flags().StringVar(&startDate, "start-date", "", "First posting date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("week")
	_ = cmd.MarkFlagRequired("start-date")
	return cmd
}
