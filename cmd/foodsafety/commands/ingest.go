package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety/ui"
	"github.com/jsedoc/fish-rankings/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load external food safety data into the database",
	}
	cmd.AddCommand(newIngestRecallsCmd())
	cmd.AddCommand(newIngestAdvisoriesCmd())
	return cmd
}

func newIngestRecallsCmd() *cobra.Command {
	var days, limit int

	cmd := &cobra.Command{
		Use:     "recalls",
		Short:   "Fetch recent recalls from openFDA",
		Example: `  foodsafety ingest recalls --days 30 --limit 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ui.Step("Fetching recalls from the last %d days (limit %d)", days, limit)

			var bar *ui.ProgressBar
			pipeline := ingest.NewRecallPipeline(a.Logger, a.FDA, a.Store.Recalls)
			result, err := pipeline.Run(ctx, ingest.Options{
				Days:  days,
				Limit: limit,
				OnProgress: func(done, total int) {
					if bar == nil {
						bar = ui.NewProgressBar(int64(total), "Storing")
					}
					bar.Set(int64(done))
				},
			})
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("ingest recalls: %w", err)
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "look back this many days")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of recalls to fetch")
	return cmd
}

func newIngestAdvisoriesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:     "advisories",
		Short:   "Load fish consumption advisories from a JSON file",
		Example: `  foodsafety ingest advisories --file data/advisories.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open advisories file: %w", err)
			}
			defer f.Close()

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := ingest.LoadAdvisories(ctx, a.Logger, f, a.Store.Advisories)
			if err != nil {
				return fmt.Errorf("ingest advisories: %w", err)
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of advisories")
	return cmd
}

func printResult(r *ingest.Result) {
	if r.Failed == 0 {
		ui.Success("Ingestion complete")
	} else {
		ui.Warning("Ingestion completed with %d failures", r.Failed)
	}
	ui.KeyValue("Job", r.JobID.String())
	ui.KeyValue("Fetched", r.Fetched)
	ui.KeyValue("Created", r.Created)
	ui.KeyValue("Updated", r.Updated)
	ui.KeyValue("Failed", r.Failed)
	ui.KeyValue("Duration", ui.FormatDuration(r.Duration))
	if ui.Verbose() {
		for _, e := range r.Errors {
			ui.Error("%s", e)
		}
	}
}
