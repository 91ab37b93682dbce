// ABOUTME: MCP tool definitions and registration for the Coverly advisor
// ABOUTME: Exposes chat, deterministic estimates, and policy listing over stdio
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/coverly/advisor/internal/core"
	"github.com/coverly/advisor/internal/ratebook"
	"github.com/coverly/advisor/internal/storage"
)

// RegisterTools registers all advisor tools with the MCP server.
func RegisterTools(server *mcpserver.MCPServer, advisor *core.Advisor, transcripts storage.TranscriptStore, policies storage.PolicyStore, rb *ratebook.Ratebook, historyTokenLimit, historyMessageLimit int) *Handlers {
	handlers := &Handlers{
		advisor:             advisor,
		transcripts:         transcripts,
		policies:            policies,
		ratebook:            rb,
		historyTokenLimit:   historyTokenLimit,
		historyMessageLimit: historyMessageLimit,
	}

	// 1. advisor_chat - One conversational turn through the routing core
	server.AddTool(mcp.Tool{
		Name:        "advisor_chat",
		Description: "Send one user message to the Coverly advisor. Routes to a quick reply, a deterministic estimate, a policy-grounded answer, or the full analytical pipeline, and returns the reply with at most one trailing control marker.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "User message for this turn",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation to continue; omit to start a new one",
				},
				"identity": map[string]interface{}{
					"type":        "string",
					"description": "Identity key for policy lookups",
				},
				"policy_type": map[string]interface{}{
					"type":        "string",
					"description": "Optional policy type override (auto, home, renters, umbrella, life, health, other)",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.AdvisorChat)

	// 2. estimate_rate - Direct deterministic ratebook lookup
	server.AddTool(mcp.Tool{
		Name:        "estimate_rate",
		Description: "Look up a ballpark monthly premium range from the reference ratebook. Figures come from the table only and always carry the legal disclaimer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"policy_type": map[string]interface{}{
					"type":        "string",
					"description": "Policy type (auto, home, renters, umbrella, life, health)",
				},
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Two-letter US state code",
				},
				"age_range": map[string]interface{}{
					"type":        "string",
					"description": "Age range bucket (18-24, 25-39, 40-64, 65+)",
				},
			},
			Required: []string{"policy_type"},
		},
	}, handlers.EstimateRate)

	// 3. list_policies - Policy records on file for an identity
	server.AddTool(mcp.Tool{
		Name:        "list_policies",
		Description: "List the analyzed policy records on file for an identity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"identity": map[string]interface{}{
					"type":        "string",
					"description": "Identity key whose records to list",
				},
			},
			Required: []string{"identity"},
		},
	}, handlers.ListPolicies)

	return handlers
}
