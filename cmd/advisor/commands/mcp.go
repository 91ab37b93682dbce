// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to use the advisor via stdio
package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	advisormcp "github.com/coverly/advisor/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the advisor as an MCP (Model Context Protocol) server over stdio,
exposing advisor_chat, estimate_rate, and list_policies tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP host)
  advisor mcp

  # Configure in an MCP host config:
  # {
  #   "mcpServers": {
  #     "coverly": {
  #       "command": "advisor",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initialize advisor: %w", err)
	}
	defer rt.close()

	server := mcpserver.NewMCPServer(
		"Coverly Advisor",
		versionInfo.Version,
	)

	advisormcp.RegisterTools(server, rt.advisor, rt.transcripts, rt.policies, rt.ratebook,
		cfg.HistoryTokenLimit, cfg.HistoryMessageLimit)

	if !quiet {
		log.Println("Coverly MCP server starting on stdio...")
	}
	if err := mcpserver.ServeStdio(server); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
