// Package cli implements the ragctl command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Services holds the driving ports the commands run against.
type Services struct {
	RAG         driving.RAGService
	Models      driving.ModelService
	Diagnostics driving.DiagnosticsService

	// TopK is the default number of documents retrieved per query.
	TopK int

	// SaveActiveModel persists a model switch. Optional.
	SaveActiveModel func(id string) error

	// Close releases resources. Optional.
	Close func() error
}

// Bootstrap builds the services from the configuration file at cfgPath
// (empty means the default location).
type Bootstrap func(ctx context.Context, cfgPath string) (*Services, error)

var (
	cfgPath string
	verbose bool

	bootstrap Bootstrap
	services  *Services

	ragService         driving.RAGService
	modelService       driving.ModelService
	diagnosticsService driving.DiagnosticsService
)

// annotationNoServices marks commands that run without the index.
const annotationNoServices = "no-services"

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Ask questions about your documents",
	Long: `ragctl indexes local documents with embedding models and answers
questions grounded on the most relevant ones.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupServices,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return teardownServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ~/.ragctl/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command. boot is called lazily, once, by commands
// that need the index.
func Execute(ctx context.Context, boot Bootstrap) error {
	bootstrap = boot
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardownServices(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// SetServices installs services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	services = s
	if s == nil {
		ragService, modelService, diagnosticsService = nil, nil, nil
		return
	}
	ragService, modelService, diagnosticsService = s.RAG, s.Models, s.Diagnostics
}

func setupServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if !needsServices(cmd) || ragService != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("services not configured")
	}

	s, err := bootstrap(cmd.Context(), cfgPath)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

// needsServices reports whether cmd runs against the index. Help,
// completion and annotated commands do not.
func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoServices] == "true" {
			return false
		}
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, "completion":
			return false
		}
	}
	return true
}

func teardownServices() error {
	if services == nil || services.Close == nil {
		return nil
	}
	closeFn := services.Close
	services.Close = nil
	return closeFn()
}

func topK(flag int) int {
	if flag > 0 {
		return flag
	}
	if services != nil && services.TopK > 0 {
		return services.TopK
	}
	return 5
}

func requireRAG() error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}
	return nil
}
