// ABOUTME: Root CLI command with global flags and subcommand registration
// ABOUTME: Entry point for chat, estimate, policies, mcp, and version commands
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Global flags shared by all commands
var (
	verbose bool
	quiet   bool
	format  string
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Coverly - conversational insurance advisor",
		Long: `Coverly - conversational insurance advisor

Routes each message to a quick reply, a deterministic ballpark estimate,
a policy-grounded answer, or the full Draft/Review/Present pipeline.

Quick start:
  advisor chat "roughly how much is auto insurance in CA"
  advisor estimate auto --state CA
  advisor policies list --identity you@example.com`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch format {
			case "auto", "text", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, text, or json, got %q", format)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVar(&format, "format", "auto", "output format (auto, text, json)")

	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewEstimateCmd())
	cmd.AddCommand(NewPoliciesCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
