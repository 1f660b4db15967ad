package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past acquisitions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past acquisitions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		provider, _ := cmd.Flags().GetString("provider")
		kind, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		filter := domain.AcquisitionFilter{
			Status:   domain.AcquisitionStatus(status),
			Provider: domain.ProviderID(provider),
			Kind:     domain.SourceKind(kind),
			Limit:    limit,
		}
		if filter.Status != "" && !domain.ValidateStatus(filter.Status) {
			return fmt.Errorf("invalid status: %s", status)
		}
		if filter.Provider != "" && !domain.ValidateProvider(filter.Provider) {
			return fmt.Errorf("invalid provider: %s", provider)
		}

		if filter.Kind != "" && filter.Kind != domain.KindDirectURL && filter.Kind != domain.KindSearchQuery {
			return fmt.Errorf("invalid kind: %s", kind)
		}

		components, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer components.Close()

		acquisitions, err := components.Service.List(filter)
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), acquisitions)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tINPUT\tPROVIDER\tSTATUS\tCREATED")
		for _, a := range acquisitions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(a.ID, 8),
				truncate(a.RawInput, 40),
				a.Provider,
				a.Status,
				a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one acquisition with its provider attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		components, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer components.Close()

		acquisition, err := components.Service.Get(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), acquisition)
		}
		printAcquisition(cmd.OutOrStdout(), acquisition)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show acquisition statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer components.Close()

		stats, err := components.Service.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Acquisition Statistics:")
		fmt.Fprintf(out, "  Total:      %d\n", stats.Total)
		fmt.Fprintf(out, "  Processing: %d\n", stats.Processing)
		fmt.Fprintf(out, "  Completed:  %d\n", stats.Completed)
		fmt.Fprintf(out, "  Failed:     %d\n", stats.Failed)
		fmt.Fprintf(out, "  Cancelled:  %d\n", stats.Cancelled)
		for _, id := range domain.AllProviders() {
			if n := stats.ByProvider[id]; n > 0 {
				fmt.Fprintf(out, "  via %-15s %d\n", id+":", n)
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a history record (the file is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		components, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer components.Close()

		if err := components.Service.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Record deleted")
		return nil
	},
}

func init() {
	historyListCmd.Flags().StringP("status", "s", "", "Filter by status")
	historyListCmd.Flags().StringP("provider", "p", "", "Filter by provider")
	historyListCmd.Flags().StringP("kind", "k", "", "Filter by kind (direct_url, search_query)")
	historyListCmd.Flags().IntP("limit", "n", 20, "Maximum number of records (0 = all)")
	historyListCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	historyShowCmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func printAcquisition(w io.Writer, a *domain.Acquisition) {
	fmt.Fprintf(w, "Acquisition Details:\n")
	fmt.Fprintf(w, "  ID:       %s\n", a.ID)
	fmt.Fprintf(w, "  Input:    %s\n", a.RawInput)
	fmt.Fprintf(w, "  Kind:     %s\n", a.Kind)
	fmt.Fprintf(w, "  Status:   %s\n", a.Status)
	fmt.Fprintf(w, "  Created:  %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
	if a.Provider != "" {
		fmt.Fprintf(w, "  Provider: %s\n", a.Provider)
	}
	if a.FilePath != "" {
		fmt.Fprintf(w, "  File:     %s\n", a.FilePath)
	}
	if a.ErrorMessage != "" {
		fmt.Fprintf(w, "  Error:    %s\n", a.ErrorMessage)
	}
	if attempts := a.Attempts(); len(attempts) > 0 {
		fmt.Fprintf(w, "  Attempts:\n")
		for _, attempt := range attempts {
			result := "ok"
			if !attempt.Succeeded() {
				result = attempt.Error
			}
			fmt.Fprintf(w, "    %-15s %8s  %s\n", attempt.Provider, attempt.Duration.Round(1e6), firstLine(result))
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
