package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/batch"
	"reelsmith/internal/guardrail"
	"reelsmith/internal/logging"
	"reelsmith/internal/manifest"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/plan"
	"reelsmith/internal/providers"
	"reelsmith/internal/store"
	"reelsmith/internal/templates"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var week int
	var kinds []string
	var entities []string
	var resume bool
	var render bool
	var upload bool
	var guardrailMode string
	var maxWords int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a week's batch: plan, generate, and write the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			// Uploading needs a rendered video on disk.
			render = render || upload

			var modeOverride guardrail.Mode
			if guardrailMode != "" {
				mode, ok := guardrail.ParseMode(guardrailMode)
				if !ok {
					return fmt.Errorf("unknown guardrail mode %q (want fail or trim)", guardrailMode)
				}
				modeOverride = mode
			}

			var items []plan.PlannedItem
			if resume {
				artifact, err := plan.LoadArtifact(cfg.WeekDir(week))
				if err != nil {
					return err
				}
				items = artifact.Items
			} else {
				items, err = plan.Plan(week, kinds, entities)
				if err != nil {
					return err
				}
				if _, err := plan.SaveArtifact(cfg.WeekDir(week), week, items); err != nil {
					return err
				}
			}

			var renderer providers.AvatarRenderer
			if render {
				renderer, err = pipeline.NewAvatarRenderer(cfg, logger)
				if err != nil {
					return err
				}
			}
			var uploader providers.Uploader
			if upload {
				uploader, err = pipeline.NewUploader(cfg, logger)
				if err != nil {
					return err
				}
			}

			itemStore, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer itemStore.Close()

			pipe := pipeline.New(cfg,
				pipeline.NewRosterSource(cfg, logger),
				templates.NewResolver(cfg.Paths.TemplateDir),
				renderer, uploader, providers.SystemClock{}, logger,
				pipeline.Options{
					Render:        render,
					Upload:        upload,
					MaxWords:      maxWords,
					GuardrailMode: modeOverride,
				})

			orchestrator := batch.New(cfg, pipe, itemStore, notifications.NewService(cfg), logger)
			result, err := orchestrator.Run(cmd.Context(), items)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(fmt.Sprintf("Week %d batch", week), colorize) {
				fmt.Fprintln(out, line)
			}

			counts := result.Week.Summary()
			rows := make([][]string, 0, len(result.Week.Entries))
			for _, entry := range result.Week.Entries {
				detail := entry.Caption
				if entry.Status != manifest.StatusOK {
					detail = entry.ErrorDetail
				}
				rows = append(rows, []string{entry.ItemSlug, string(entry.Status), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Slug", "Status", "Detail"}, rows))

			summaryKind := statusOK
			if counts.Failed > 0 || result.Week.Partial {
				summaryKind = statusWarn
			}
			message := fmt.Sprintf("%d ok, %d blocked, %d failed in %s",
				counts.OK, counts.Blocked, counts.Failed, result.Duration.Round(time.Millisecond))
			if result.Week.Partial {
				message += " (partial)"
			}
			fmt.Fprintln(out, renderStatusLine("Batch", summaryKind, message, colorize))
			fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, result.ManifestPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Run ID", statusInfo, result.RunID, colorize))
			return nil
		},
	}

	cmd.Flags().IntVarP(&week, "week", "w", 0, "Week number to run")
	cmd.Flags().StringSliceVarP(&kinds, "kinds", "k", nil, "Content kinds (comma separated)")
	cmd.Flags().StringSliceVarP(&entities, "entities", "e", nil, "Entity names (comma separated)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse the saved plan instead of re-planning")
	cmd.Flags().BoolVar(&render, "render", false, "Render avatar videos for generated scripts")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload rendered videos (implies rendered output)")
	cmd.Flags().StringVar(&guardrailMode, "guardrail-mode", "", "Override guardrail mode for this run (fail or trim)")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Override the script word limit for this run")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}
