package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reembedModel string

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Re-embed every document",
	Long: `Rebuilds the index from the stored documents with the active embedding
model, or with --model after switching to it. Queries keep working while the
rebuild runs; ingestion waits for it to finish.`,
	Args: cobra.NoArgs,
	RunE: runReembed,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage embedding models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available embedding models",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsUseCmd = &cobra.Command{
	Use:   "use [model-id]",
	Short: "Switch the active embedding model",
	Long: `Switches the model used for new embeddings. Existing vectors are kept;
run 'ragctl reembed' to rebuild them with the new model.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsUse,
}

func init() {
	reembedCmd.Flags().StringVarP(&reembedModel, "model", "m", "", "switch to this model before rebuilding")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsUseCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(reembedCmd)
}

func runReembed(cmd *cobra.Command, _ []string) error {
	if err := requireRAG(); err != nil {
		return err
	}

	start := time.Now()
	if err := ragService.ReembedAll(cmd.Context(), reembedModel); err != nil {
		return fmt.Errorf("re-embed failed: %w", err)
	}
	if reembedModel != "" {
		if err := saveActiveModel(reembedModel); err != nil {
			return err
		}
	}

	stats, err := ragService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	cmd.Printf("Re-embedded %d documents with %s in %s\n",
		stats.Vectors, stats.ActiveModel.ID, time.Since(start).Round(time.Millisecond))
	return nil
}

func runModelsList(cmd *cobra.Command, _ []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	active := modelService.Active().ID
	cmd.Println("Embedding models:")
	for _, m := range modelService.List() {
		marker := " "
		if m.ID == active {
			marker = "*"
		}
		cmd.Printf("  %s %-42s %5d dims  %s\n", marker, m.ID, m.Dimensions, m.Description)
	}
	return nil
}

func runModelsUse(cmd *cobra.Command, args []string) error {
	if modelService == nil {
		return errors.New("model service not configured")
	}

	if err := modelService.SetActive(args[0]); err != nil {
		return fmt.Errorf("failed to switch model: %w", err)
	}
	if err := saveActiveModel(args[0]); err != nil {
		return err
	}
	cmd.Printf("Active model: %s\n", args[0])
	cmd.Println("Run 'ragctl reembed' to rebuild existing vectors with this model.")
	return nil
}

func saveActiveModel(id string) error {
	if services == nil || services.SaveActiveModel == nil {
		return nil
	}
	if err := services.SaveActiveModel(id); err != nil {
		return fmt.Errorf("failed to save active model: %w", err)
	}
	return nil
}
