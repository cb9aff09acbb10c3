package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subclip/internal/catalog"
	"subclip/internal/pipeline"
	"subclip/internal/preflight"
)

func newHarvestCommand(ctx *commandContext) *cobra.Command {
	var (
		lang       string
		numVideos  int
		skipChecks bool
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Download the next videos of every creator and cut them into clips",
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
			if numVideos <= 0 {
				return fmt.Errorf("--num_videos must be positive, got %d", numVideos)
			}

			runCtx, cancel := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if !skipChecks {
				if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, code)); len(failed) > 0 {
					parts := make([]string, 0, len(failed))
					for _, r := range failed {
						parts = append(parts, r.Name+": "+r.Detail)
					}
					return fmt.Errorf("preflight failed (run `subclip check` for details): %s", strings.Join(parts, "; "))
				}
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			creators, err := catalog.LoadCreators(cfg.CreatorsPath(code))
			if err != nil {
				return err
			}

			store := openJournal(cfg, logger)
			if store != nil {
				defer store.Close()
			}
			p, err := buildPipeline(cfg, pipelineParams{
				lang:      code,
				numVideos: numVideos,
				journal:   store,
				logger:    logger,
			})
			if err != nil {
				return err
			}

			summary, runErr := p.Run(runCtx, creators)
			fmt.Fprintln(cmd.OutOrStdout(), renderHarvestSummary(summary))
			return runErr
		},
	}

	addLanguageFlag(cmd, &lang)
	cmd.Flags().IntVarP(&numVideos, "num_videos", "n", 0, "Videos to attempt per creator (defaults to dataset.num_videos)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func renderHarvestSummary(s pipeline.Summary) string {
	rows := [][]string{
		{"Creators", strconv.Itoa(s.Creators)},
		{"Videos attempted", strconv.Itoa(s.Videos)},
		{"Videos succeeded", strconv.Itoa(s.Succeeded)},
		{"Clips written", strconv.Itoa(s.Samples)},
		{"Audio kept", formatSeconds(s.Seconds)},
	}
	states := make([]string, 0, len(s.States))
	for state := range s.States {
		states = append(states, string(state))
	}
	sort.Strings(states)
	for _, state := range states {
		rows = append(rows, []string{"  " + state, strconv.Itoa(s.States[pipeline.State(state)])})
	}
	return renderTable("Run "+s.RunID, []string{"", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
