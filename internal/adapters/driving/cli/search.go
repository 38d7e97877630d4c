package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// snippetLength is the number of characters of content shown per result.
const snippetLength = 160

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Finds the documents most similar to the query by cosine similarity of
their embeddings. No answer is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	results, err := ragService.Search(cmd.Context(), args[0], topK(searchTopK))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

type searchResultJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SourceType string  `json:"source_type"`
	URI        string  `json:"uri,omitempty"`
	Score      float64 `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, results domain.RetrievalResult) error {
	out := make([]searchResultJSON, len(results))
	for i, sd := range results {
		out[i] = searchResultJSON{
			ID:         sd.Document.ID,
			Title:      sd.Document.DisplayTitle(),
			SourceType: string(sd.Document.SourceType),
			URI:        sd.Document.URI,
			Score:      sd.Score,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, sd := range results {
		// Format: [N] Title (Score)
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, sd.Document.DisplayTitle(), sd.Score)
		cmd.Printf("      ID: %s\n", sd.Document.ID)
		if snippet := snippet(sd.Document.Content); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

func snippet(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	r := []rune(s)
	if len(r) <= snippetLength {
		return s
	}
	return string(r[:snippetLength]) + "..."
}
