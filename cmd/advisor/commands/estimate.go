// ABOUTME: Estimate command for direct deterministic ratebook lookups
// ABOUTME: No generation involved; figures come from the table alone
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/ratebook"
)

// NewEstimateCmd creates the estimate command
func NewEstimateCmd() *cobra.Command {
	var (
		state    string
		ageRange string
	)

	cmd := &cobra.Command{
		Use:   "estimate <policy-type>",
		Short: "Look up a ballpark premium range",
		Long: `Look up a ballpark premium range

Reads the reference ratebook directly. The output always ends with the
legal disclaimer; no figure outside the table is ever shown.`,
		Args: cobra.ExactArgs(1),
		Example: `  advisor estimate auto --state CA
  advisor estimate life --age 40-64
  advisor estimate renters --state NY --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, args[0], state, ageRange)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "two-letter US state code")
	cmd.Flags().StringVar(&ageRange, "age", "", "age range (18-24, 25-39, 40-64, 65+)")

	return cmd
}

func runEstimate(cmd *cobra.Command, rawType, state, ageRange string) error {
	policyType, err := models.ParsePolicyType(rawType)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rb, err := ratebook.Load(cfg.RatebookPath)
	if err != nil {
		return fmt.Errorf("load ratebook: %w", err)
	}

	est, err := rb.Estimate(policyType, state, ageRange)
	if err != nil {
		return fmt.Errorf("no rates on file for %s", policyType)
	}

	if format == "json" {
		data, err := json.MarshalIndent(est, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), est.Render(""))
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "\nratebook %s (%s)\n", rb.Version(), rb.Currency())
	}
	return nil
}
