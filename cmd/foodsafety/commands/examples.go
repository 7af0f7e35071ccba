package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsedoc/fish-rankings/cmd/foodsafety/ui"
	"github.com/jsedoc/fish-rankings/internal/query"
	"github.com/jsedoc/fish-rankings/pkg/foodsafety"
)

func newExamplesCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Show example questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadExamples(cmd, apiURL)
			if err != nil {
				return err
			}

			for _, category := range catalog.Examples {
				ui.Section(category.Category)
				for _, q := range category.Queries {
					ui.Step("%s", q)
				}
			}
			if len(catalog.Tips) > 0 {
				ui.Section("Tips")
				for _, tip := range catalog.Tips {
					ui.Info("%s", tip)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "base URL of a running API server")
	return cmd
}

func loadExamples(cmd *cobra.Command, apiURL string) (*foodsafety.ExamplesResponse, error) {
	if apiURL != "" {
		client, err := newAPIClient(apiURL)
		if err != nil {
			return nil, err
		}
		resp, err := client.Examples(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("fetch examples: %w", err)
		}
		return resp, nil
	}

	local := query.Examples()
	resp := &foodsafety.ExamplesResponse{Tips: local.Tips}
	for _, c := range local.Examples {
		resp.Examples = append(resp.Examples, foodsafety.ExampleCategory(c))
	}
	return resp, nil
}
