package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	voxmcp "github.com/dkoval/voxgate/internal/mcp"
)

var (
	mcpPolicy string
	mcpVocab  string
	mcpAudit  string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to policy YAML")
	mcpCmd.Flags().StringVar(&mcpVocab, "vocab", "", "Path to vocabulary YAML")
	mcpCmd.Flags().StringVar(&mcpAudit, "audit-log", "", "Append decisions to this JSONL log")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for front-end integration",
	Long: "Runs voxgate as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the decision pipeline as tools: submit, result, check, status.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := voxmcp.New(voxmcp.Config{
		PolicyPath:   mcpPolicy,
		VocabPath:    mcpVocab,
		AuditLogPath: mcpAudit,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "voxgate MCP server running on stdio")
	return srv.Run(ctx)
}
