package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subclip/internal/logging"
	"subclip/internal/prune"
	"subclip/internal/textfilter"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		lang   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove filler-only clips and normalize clip text whitespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code, err := ctx.resolveLanguage(lang)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			pruner := prune.Pruner{
				Denylist: textfilter.NewDenylist(cfg.FillerTokensFor(code)...),
				DryRun:   dryRun,
				Logger:   logger,
			}
			if pruner.Denylist.Len() == 0 {
				logging.WarnWithContext(logger, "no filler tokens configured", "prune_no_denylist",
					logging.String("lang", code),
					logging.String(logging.FieldImpact, "only empty clips will be removed"),
				)
			}
			result, err := pruner.Run(cfg.LanguageDataDir(code))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, dir := range result.RemovedDirs {
				fmt.Fprintf(out, "%s %s\n", verb, dir)
			}
			fmt.Fprintf(out, "Scanned %d clips: %d removed, %d rewritten\n", result.Scanned, result.Removed, result.Rewritten)
			return nil
		},
	}

	addLanguageFlag(cmd, &lang)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without touching the dataset")
	return cmd
}
