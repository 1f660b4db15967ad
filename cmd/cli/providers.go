package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/infrastructure"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the search order and whether each provider's tool is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		config, err := loadConfig()
		if err != nil {
			return err
		}

		runner := infrastructure.NewProcessRunner("", 0, nil)
		statuses := app.DiagnoseProviders(config, runner)

		if jsonOutput {
			data, err := json.MarshalIndent(statuses, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Search order: %v\n\n", config.Orchestrator.SearchOrder)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tTOOL\tENABLED\tINSTALLED\tPATH")
		for _, s := range statuses {
			installed := "yes"
			if !s.Available {
				installed = "no"
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", s.Provider, s.Binary, s.Enabled, installed, s.Path)
		}
		return w.Flush()
	},
}

func init() {
	providersCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}
