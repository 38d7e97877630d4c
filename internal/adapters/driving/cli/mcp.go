package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC. It exposes
the ask, search, ingest and remove tools, and the documents and errors
resources.

Use --http to serve over HTTP instead, e.g. for the MCP Inspector.

Examples:
  # Stdio mode (default)
  ragctl mcp

  # HTTP mode
  ragctl mcp --http :8080

Assistant configuration:
  {
    "mcpServers": {
      "ragctl": {
        "command": "/path/to/ragctl",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	ports := &mcp.Ports{
		RAG:         ragService,
		Diagnostics: diagnosticsService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
