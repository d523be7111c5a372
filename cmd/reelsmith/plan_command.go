package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var week int
	var kinds []string
	var entities []string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a week's content batch and write the plan artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			items, err := plan.Plan(week, kinds, entities)
			if err != nil {
				return err
			}

			weekDir := cfg.WeekDir(week)
			path, err := plan.SaveArtifact(weekDir, week, items)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{item.Slug, item.EntityName, item.ContentKind})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Slug", "Entity", "Kind"}, rows))
			fmt.Fprintf(out, "Planned %d items for week %d\n", len(items), week)
			fmt.Fprintf(out, "Plan written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVarP(&week, "week", "w", 0, "Week number to plan")
	cmd.Flags().StringSliceVarP(&kinds, "kinds", "k", nil, "Content kinds (comma separated)")
	cmd.Flags().StringSliceVarP(&entities, "entities", "e", nil, "Entity names (comma separated)")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
