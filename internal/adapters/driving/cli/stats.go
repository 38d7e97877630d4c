package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errorsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show recent failures of embedding and generation calls",
	Args:  cobra.NoArgs,
	RunE:  runErrors,
}

func init() {
	errorsCmd.Flags().IntVarP(&errorsLimit, "limit", "n", 20, "maximum number of entries (0 = all)")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(errorsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	stats, err := ragService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	cmd.Printf("Documents:    %d\n", stats.Documents)
	cmd.Printf("Vectors:      %d\n", stats.Vectors)
	cmd.Printf("Active model: %s (%d dims)\n", stats.ActiveModel.ID, stats.ActiveModel.Dimensions)
	if stats.Vectors < stats.Documents {
		cmd.Printf("%d documents are not indexed; run 'ragctl reembed'.\n", stats.Documents-stats.Vectors)
	}
	return nil
}

func runErrors(cmd *cobra.Command, _ []string) error {
	if diagnosticsService == nil {
		return errors.New("diagnostics service not configured")
	}

	records, err := diagnosticsService.RecentErrors(cmd.Context(), errorsLimit)
	if err != nil {
		return fmt.Errorf("failed to read error log: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No errors recorded.")
		return nil
	}

	for _, r := range records {
		status := ""
		if r.StatusCode != 0 {
			status = fmt.Sprintf(" HTTP %d", r.StatusCode)
		}
		cmd.Printf("%s  %-8s %-12s%s after %d attempt(s): %s\n",
			r.Time.Format("2006-01-02 15:04:05"), r.Op, r.Kind, status, r.Attempts, r.Message)
	}
	return nil
}
