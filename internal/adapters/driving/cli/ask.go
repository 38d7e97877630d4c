package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askTopK    int
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your documents",
	Long: `Retrieves the documents most similar to the question and asks the
generation model to answer using them as context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of documents to ground the answer on")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "show source scores")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	answer, err := ragService.Query(cmd.Context(), strings.Join(args, " "), topK(askTopK))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer.Text)
	cmd.Println()
	if answer.NoContext {
		cmd.Println("(no relevant documents found)")
		return nil
	}

	cmd.Printf("Grounded on: %s\n", strings.Join(answer.GroundedOn, ", "))
	if askSources {
		for i, sd := range answer.Sources {
			cmd.Printf("  [%d] %.4f %s (%s)\n", i+1, sd.Score, sd.Document.DisplayTitle(), sd.Document.ID)
		}
	}
	return nil
}
