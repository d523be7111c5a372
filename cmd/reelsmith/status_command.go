package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelsmith/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted outcomes for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			itemStore, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer itemStore.Close()

			summary, err := itemStore.WeekSummary(cmd.Context(), week)
			if err != nil {
				return err
			}
			items, err := itemStore.ListForWeek(cmd.Context(), week)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(fmt.Sprintf("Week %d status", week), colorize) {
				fmt.Fprintln(out, line)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, renderStatusLine("Items", statusInfo, "none recorded", colorize))
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				detail := item.Caption
				if item.ErrorDetail != "" {
					detail = item.ErrorDetail
				}
				rows = append(rows, []string{
					item.ItemSlug,
					string(item.Status),
					detail,
					item.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Slug", "Status", "Detail", "Updated"}, rows))

			fmt.Fprintln(out, renderTable(
				[]string{"Total", "OK", "Blocked", "Failed"},
				[][]string{{
					strconv.Itoa(summary.Total),
					strconv.Itoa(summary.OK),
					strconv.Itoa(summary.Blocked),
					strconv.Itoa(summary.Failed),
				}},
				0, 1, 2, 3,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&week, "week", "w", 0, "Week number to inspect")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
