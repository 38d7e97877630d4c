package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/extract"
)

var (
	ingestRecursive bool
	ingestText      string
	ingestTitle     string
	ingestID        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Add documents to the index",
	Long: `Extracts text from the given files and adds them to the index with the
active embedding model. Re-ingesting a file replaces its previous version.

Use --text to ingest a snippet directly instead of files.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "ingest directories recursively")
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this text instead of files")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "title for --text")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id for --text (generated when empty)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if ingestText != "" {
		id := ingestID
		if id == "" {
			id = uuid.New().String()
		}
		doc := domain.Document{ID: id, Title: ingestTitle, Content: ingestText, SourceType: domain.SourceTypeText}
		if err := ragService.Ingest(ctx, doc); err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Ingested %s\n", id)
		return nil
	}

	if len(args) == 0 {
		return errors.New("no files given; pass paths or --text")
	}

	paths, err := expandPaths(args, ingestRecursive)
	if err != nil {
		return err
	}

	var ingested, skipped int
	var failed []string
	for _, path := range paths {
		doc, err := extract.File(path)
		if errors.Is(err, extract.ErrUnsupported) {
			cmd.Printf("  skip  %s (%v)\n", path, err)
			skipped++
			continue
		}
		if err == nil {
			err = ragService.Ingest(ctx, doc)
		}
		if err != nil {
			cmd.Printf("  fail  %s: %v\n", path, err)
			failed = append(failed, path)
			continue
		}
		cmd.Printf("  ok    %s  %s\n", doc.ID, path)
		ingested++
	}

	cmd.Printf("Ingested %d, skipped %d, failed %d\n", ingested, skipped, len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%d file(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// expandPaths resolves directories to the visible files they contain.
func expandPaths(args []string, recursive bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				out = append(out, path)
				return nil
			}
			if path == arg {
				return nil
			}
			if !recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
