package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driving/watcher"
)

var watchNoSync bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in sync with a folder",
	Long: `Ingests every file in the folder, then watches it: files that are
created or changed are re-ingested and deleted files are removed.
Hidden files and folders are ignored. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoSync, "no-sync", false, "skip the initial ingest of existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watcher.New(args[0], ragService, watcher.WithOnChange(func(c watcher.Change, err error) {
		if err == nil {
			cmd.Printf("  %-8s %s\n", c.Type, c.Path)
		}
	}))
	defer w.Close()

	if !watchNoSync {
		n, err := w.Sync(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Synced %d files\n", n)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
