package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subclip/internal/catalog"
	"subclip/internal/logging"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var (
		lang      string
		numVideos int
	)

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Refresh cached video lists and show what the next harvest would fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code, err := ctx.resolveLanguage(lang)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("num_videos") {
				numVideos = cfg.Dataset.NumVideos
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			creators, err := catalog.LoadCreators(cfg.CreatorsPath(code))
			if err != nil {
				return err
			}
			p, err := buildPipeline(cfg, pipelineParams{lang: code, numVideos: numVideos, logger: logger})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(creators))
			for _, creator := range creators {
				pending, metric, total, err := p.Pending(cmd.Context(), creator)
				if err != nil {
					logging.ErrorWithContext(logger, "video listing failed", "listing_failed",
						logging.String("creator", creator.Channel),
						logging.Error(err),
					)
					rows = append(rows, []string{creator.Channel, dateOrDash(creator.DateAfter), "error", "", ""})
					continue
				}
				next := "-"
				if len(pending) > 0 {
					next = pending[0].ID
					if len(pending) > 1 {
						next = fmt.Sprintf("%s (+%d)", next, len(pending)-1)
					}
				}
				rows = append(rows, []string{
					creator.Channel,
					dateOrDash(creator.DateAfter),
					strconv.Itoa(total),
					strconv.Itoa(metric.Download),
					next,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("",
				[]string{"Creator", "After", "Available", "Attempted", "Next"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	addLanguageFlag(cmd, &lang)
	cmd.Flags().IntVarP(&numVideos, "num_videos", "n", 0, "Videos per creator to preview (defaults to dataset.num_videos)")
	return cmd
}

func dateOrDash(date string) string {
	if date == "" {
		return "-"
	}
	return date
}
