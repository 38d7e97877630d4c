package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect indexed documents",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	removed, err := ragService.RemoveDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	if !removed {
		cmd.Printf("Document %s was not indexed\n", args[0])
		return nil
	}
	cmd.Printf("Removed document: %s\n", args[0])
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	docs, err := ragService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Printf("Documents (%d):\n", len(docs))
	for i := range docs {
		cmd.Printf("  %s  %-8s  %s\n", docs[i].ID, docs[i].SourceType, docs[i].DisplayTitle())
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	doc, err := ragService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	cmd.Println(doc.Content)
	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	doc, err := ragService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:          %s\n", doc.ID)
	cmd.Printf("Title:       %s\n", doc.DisplayTitle())
	cmd.Printf("Source type: %s\n", doc.SourceType)
	if doc.URI != "" {
		cmd.Printf("URI:         %s\n", doc.URI)
	}
	cmd.Printf("Size:        %d bytes\n", len(doc.Content))
	cmd.Printf("Created:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Updated:     %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println("Metadata:")
		for _, k := range keys {
			cmd.Printf("  %s: %v\n", k, doc.Metadata[k])
		}
	}
	return nil
}
