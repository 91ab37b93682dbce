// ABOUTME: MCP tool handler implementations for the advisor server
// ABOUTME: Maps internal failures to the fixed apology; no technical detail leaves the process
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coverly/advisor/internal/core"
	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/ratebook"
	"github.com/coverly/advisor/internal/storage"
)

// Handlers contains the handler functions for all advisor tools.
type Handlers struct {
	advisor             *core.Advisor
	transcripts         storage.TranscriptStore
	policies            storage.PolicyStore
	ratebook            *ratebook.Ratebook
	historyTokenLimit   int
	historyMessageLimit int
}

// chatReply is the advisor_chat result payload.
type chatReply struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// AdvisorChat handles the advisor_chat tool: one full turn through the core.
func (h *Handlers) AdvisorChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	identity := request.GetString("identity", "")

	var override models.PolicyType
	if raw := request.GetString("policy_type", ""); raw != "" {
		override, err = models.ParsePolicyType(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	transcript, err := h.transcripts.GetTranscript(ctx, conversationID)
	if err != nil {
		log.Printf("[MCP] transcript load failed: %v", err)
		return h.apology(conversationID), nil
	}
	bounded := storage.TruncateHistory(transcript, h.historyTokenLimit, h.historyMessageLimit)

	out, err := h.advisor.Respond(ctx, core.TurnInput{
		Transcript:     bounded,
		Message:        message,
		Identity:       identity,
		PolicyOverride: override,
	})
	if err != nil {
		log.Printf("[MCP] turn failed: %v", err)
		return h.apology(conversationID), nil
	}

	wire := out.Wire()
	if err := h.transcripts.AppendMessages(ctx, conversationID,
		models.Message{Role: models.RoleUser, Content: message},
		models.Message{Role: models.RoleAssistant, Content: wire},
	); err != nil {
		// The reply is still good; only continuity suffers.
		log.Printf("[MCP] transcript append failed: %v", err)
	}

	return resultJSON(chatReply{ConversationID: conversationID, Reply: wire})
}

func (h *Handlers) apology(conversationID string) *mcp.CallToolResult {
	result, _ := resultJSON(chatReply{ConversationID: conversationID, Reply: core.ApologyReply})
	return result
}

// EstimateRate handles the estimate_rate tool: a direct ratebook lookup
// with no generation at all.
func (h *Handlers) EstimateRate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawType, err := request.RequireString("policy_type")
	if err != nil {
		return mcp.NewToolResultError("policy_type argument is required and must be a string"), nil
	}
	policyType, err := models.ParsePolicyType(rawType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	est, err := h.ratebook.Estimate(policyType, request.GetString("state", ""), request.GetString("age_range", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no rates on file for %s", policyType)), nil
	}
	return mcp.NewToolResultText(est.Render("")), nil
}

// policySummary is one entry in the list_policies payload.
type policySummary struct {
	RecordID   string `json:"record_id"`
	Type       string `json:"type"`
	Carrier    string `json:"carrier,omitempty"`
	Label      string `json:"label,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

// ListPolicies handles the list_policies tool.
func (h *Handlers) ListPolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, err := request.RequireString("identity")
	if err != nil {
		return mcp.NewToolResultError("identity argument is required and must be a string"), nil
	}

	records, err := h.policies.GetRecordsForIdentity(ctx, identity)
	if err != nil {
		log.Printf("[MCP] policy list failed: %v", err)
		return mcp.NewToolResultError("could not list policies right now"), nil
	}

	summaries := make([]policySummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, policySummary{
			RecordID:   r.RecordID,
			Type:       string(r.Type),
			Carrier:    r.Carrier,
			Label:      r.Label,
			UploadedAt: r.UploadedAt.Format("2006-01-02"),
		})
	}
	return resultJSON(summaries)
}

func resultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("internal encoding error"), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
