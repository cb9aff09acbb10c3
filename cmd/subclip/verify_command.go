package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subclip/internal/logging"
	"subclip/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		lang       string
		all        bool
		minSeconds int
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "verify [dir]",
		Short: "Check that every clip has text and a valid, long enough name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.DataDir
			switch {
			case len(args) == 1:
				root = args[0]
			case !all:
				code, err := ctx.resolveLanguage(lang)
				if err != nil {
					return err
				}
				root = cfg.LanguageDataDir(code)
			}
			if minSeconds <= 0 {
				minSeconds = cfg.Dataset.MinDurationSeconds
			}

			out := cmd.OutOrStdout()
			validator := verify.Validator{
				MinSeconds: minSeconds,
				Logger:     logging.NewNop(),
			}
			if !quiet {
				validator.OnClip = func(path string) {
					fmt.Fprintf(out, "OK %s\n", path)
				}
			}
			report, err := validator.Run(root)
			if err != nil {
				var failure *verify.Failure
				if errors.As(err, &failure) {
					return fmt.Errorf("verification failed after %d clips: %w", report.Checked, failure)
				}
				return err
			}
			fmt.Fprintf(out, "Verified %d clips under %s\n", report.Checked, root)
			return nil
		},
	}

	addLanguageFlag(cmd, &lang)
	cmd.Flags().BoolVar(&all, "all", false, "Verify every language under the data directory")
	cmd.Flags().IntVar(&minSeconds, "min-seconds", 0, "Shortest acceptable clip (defaults to dataset.min_duration_seconds)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")
	return cmd
}
