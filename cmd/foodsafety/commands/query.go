package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety/ui"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/query"
	"github.com/jsedoc/fish-rankings/pkg/foodsafety"
)

func newQueryCmd() *cobra.Command {
	var (
		question   string
		hint       string
		apiURL     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a food safety question",
		Long: `Ask a natural-language question. The answer is grounded in matching foods,
recalls and fish advisories. By default the local database is queried directly;
pass --api-url to ask a running API server instead.`,
		Example: `  foodsafety query "Is tuna safe during pregnancy?"
  foodsafety query -q "Any recent lettuce recalls?" --api-url http://localhost:8000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" && len(args) == 1 {
				question = args[0]
			}
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("a question is required (pass it as an argument or with --question)")
			}

			var spin *ui.Spinner
			if !jsonOutput && ui.IsTerminal() {
				spin = ui.NewSpinner("Searching food safety data...")
				spin.Start()
			}
			start := time.Now()

			resp, degraded, err := ask(cmd.Context(), apiURL, question, hint)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			renderAnswer(resp)
			if degraded != "" {
				ui.Warning("Answer degraded: %s", degraded)
			}
			if ui.Verbose() {
				ui.KeyValue("Elapsed", ui.FormatDuration(time.Since(start)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask")
	cmd.Flags().StringVar(&hint, "context", "", "optional context for the question")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "base URL of a running API server")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the response as JSON")
	return cmd
}

// ask answers through the API server when apiURL is set, else through the local services.
func ask(ctx context.Context, apiURL, question, hint string) (*foodsafety.QueryResponse, domain.Kind, error) {
	if apiURL != "" {
		client, err := newAPIClient(apiURL)
		if err != nil {
			return nil, "", err
		}
		resp, err := client.Query(ctx, foodsafety.QueryRequest{Query: question, Context: hint})
		if err != nil {
			return nil, "", fmt.Errorf("query API: %w", err)
		}
		return resp, "", nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return nil, "", err
	}
	defer a.Close()

	answer, err := a.Query.AnswerQuery(ctx, query.Request{Question: question, ContextHint: hint})
	if err != nil {
		return nil, "", errors.New(domain.MessageOf(err))
	}
	return toResponse(answer), answer.Degraded, nil
}

func toResponse(answer *query.Answer) *foodsafety.QueryResponse {
	resp := &foodsafety.QueryResponse{
		Answer:     answer.Answer,
		Sources:    make([]foodsafety.Food, 0, len(answer.Foods)),
		Recalls:    make([]foodsafety.Recall, 0, len(answer.Recalls)),
		Advisories: make([]foodsafety.Advisory, 0, len(answer.Advisories)),
	}
	for _, f := range answer.Foods {
		resp.Sources = append(resp.Sources, foodsafety.Food{
			ID:          f.ID.String(),
			Name:        f.Name,
			Slug:        f.Slug,
			CommonNames: []string(f.CommonNames),
			Description: f.Description,
			ImageURL:    f.ImageURL,
			Barcode:     f.Barcode,
		})
	}
	for _, r := range answer.Recalls {
		resp.Recalls = append(resp.Recalls, foodsafety.Recall(r))
	}
	for _, a := range answer.Advisories {
		resp.Advisories = append(resp.Advisories, foodsafety.Advisory(a))
	}
	return resp
}

func renderAnswer(resp *foodsafety.QueryResponse) {
	ui.Section("Answer")
	ui.Box("", resp.Answer, 76)

	if len(resp.Sources) > 0 {
		ui.Section("Foods")
		rows := make([][]string, 0, len(resp.Sources))
		for _, f := range resp.Sources {
			rows = append(rows, []string{f.Name, ui.Truncate(f.Description, 60)})
		}
		ui.Table([]string{"NAME", "DESCRIPTION"}, rows)
	}

	if len(resp.Recalls) > 0 {
		ui.Section("Recalls")
		rows := make([][]string, 0, len(resp.Recalls))
		for _, r := range resp.Recalls {
			rows = append(rows, []string{r.RecallNumber, r.Classification, ui.Truncate(r.Product, 40), ui.Truncate(r.Reason, 40)})
		}
		ui.Table([]string{"NUMBER", "CLASS", "PRODUCT", "REASON"}, rows)
	}

	if len(resp.Advisories) > 0 {
		ui.Section("Fish Advisories")
		rows := make([][]string, 0, len(resp.Advisories))
		for _, a := range resp.Advisories {
			rows = append(rows, []string{a.State, a.FishSpecies, a.Waterbody, a.Contaminant, a.ConsumptionLimit})
		}
		ui.Table([]string{"STATE", "SPECIES", "WATERBODY", "CONTAMINANT", "LIMIT"}, rows)
	}

	if len(resp.Sources)+len(resp.Recalls)+len(resp.Advisories) == 0 {
		ui.Info("No matching records in the database.")
	}
}
