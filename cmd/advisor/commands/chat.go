// ABOUTME: Chat command sending one turn through the conversational core
// ABOUTME: Persists the transcript and renders control markers as terminal hints
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/coverly/advisor/internal/core"
	"github.com/coverly/advisor/internal/marker"
	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/storage"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	var (
		conversationID string
		identity       string
		policyType     string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to the advisor",
		Long: `Send one message to the advisor

Each invocation is one conversational turn. Pass --conversation to continue
an earlier conversation; omit it to start a new one. The conversation ID is
printed so the next turn can pick up where this one left off.`,
		Args: cobra.MinimumNArgs(1),
		Example: `  # Start a new conversation
  advisor chat "roughly how much is auto insurance in CA"

  # Continue it
  advisor chat --conversation 2f0c... "what about home insurance"

  # Ask about your own policy
  advisor chat --identity you@example.com "what's my deductible"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, strings.Join(args, " "), conversationID, identity, policyType)
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation ID to continue")
	cmd.Flags().StringVar(&identity, "identity", "", "identity key for policy lookups")
	cmd.Flags().StringVar(&policyType, "policy-type", "", "policy type override")

	return cmd
}

func runChat(cmd *cobra.Command, message, conversationID, identity, policyType string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var override models.PolicyType
	if policyType != "" {
		override, err = models.ParsePolicyType(policyType)
		if err != nil {
			return err
		}
	}

	newConversation := conversationID == ""
	if newConversation {
		conversationID = uuid.NewString()
	}

	transcript, err := rt.transcripts.GetTranscript(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	bounded := storage.TruncateHistory(transcript, cfg.HistoryTokenLimit, cfg.HistoryMessageLimit)

	out, err := rt.advisor.Respond(ctx, core.TurnInput{
		Transcript:     bounded,
		Message:        message,
		Identity:       identity,
		PolicyOverride: override,
	})
	if err != nil {
		// Infrastructure trouble stays in the logs; the user gets the
		// fixed apology.
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "turn error: %v\n", err)
		}
		out = core.TurnOutput{Text: core.ApologyReply}
	}

	wire := out.Wire()
	if err := rt.transcripts.AppendMessages(ctx, conversationID,
		models.Message{Role: models.RoleUser, Content: message},
		models.Message{Role: models.RoleAssistant, Content: wire},
	); err != nil && verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "transcript save failed: %v\n", err)
	}

	return printReply(cmd, conversationID, newConversation, out)
}

func printReply(cmd *cobra.Command, conversationID string, newConversation bool, out core.TurnOutput) error {
	if format == "json" {
		payload := map[string]string{
			"conversation_id": conversationID,
			"reply":           out.Text,
		}
		if out.Marker != marker.None {
			payload["marker"] = string(out.Marker)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Text)
	if !quiet {
		if hint := markerHint(out.Marker); hint != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", hint)
		}
		if newConversation {
			fmt.Fprintf(cmd.OutOrStdout(), "\n(conversation %s)\n", conversationID)
		}
	}
	return nil
}

// markerHint is this terminal's rendering of the marker contract. Other
// presentation layers render their own affordances.
func markerHint(m marker.Marker) string {
	switch m {
	case marker.RequestUpload:
		return "[the advisor is asking for a policy document upload]"
	case marker.OfferFork:
		return "[reply \"quick estimate\" or \"precise quote\" to choose]"
	case marker.OpenExternalLink:
		return "[the advisor suggests an external resource]"
	}
	return ""
}
