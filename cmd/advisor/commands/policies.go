// ABOUTME: Policies command group for managing records on file
// ABOUTME: List, rename, and delete analyzed policy records for an identity
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coverly/advisor/internal/config"
	"github.com/coverly/advisor/internal/storage"
)

// NewPoliciesCmd creates the policies command group
func NewPoliciesCmd() *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Manage policy records on file",
		Long: `Manage policy records on file

Records are created when a policy document is analyzed. This command group
lists, renames, and deletes them for one identity.`,
	}
	cmd.PersistentFlags().StringVar(&identity, "identity", "", "identity key (required)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List records on file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPolicyStore(cmd, identity, func(ctx context.Context, store storage.PolicyStore) error {
				records, err := store.GetRecordsForIdentity(ctx, identity)
				if err != nil {
					return fmt.Errorf("list records: %w", err)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No policies on file.")
					return nil
				}
				for _, r := range records {
					label := r.Label
					if label == "" {
						label = r.Carrier
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %-24s  uploaded %s\n",
						r.RecordID, r.Type, truncate(label, 24), formatTime(r.UploadedAt))
				}
				return nil
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <record-id> <label>",
		Short: "Rename a record's display label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPolicyStore(cmd, identity, func(ctx context.Context, store storage.PolicyStore) error {
				if err := store.RenameRecord(ctx, identity, args[0], args[1]); err != nil {
					return fmt.Errorf("rename record: %w", err)
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[0], args[1])
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPolicyStore(cmd, identity, func(ctx context.Context, store storage.PolicyStore) error {
				if err := store.DeleteRecord(ctx, identity, args[0]); err != nil {
					return fmt.Errorf("delete record: %w", err)
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, rename, del)
	return cmd
}

// withPolicyStore opens just the policy store for record management; the
// full runtime (oracles, ratebook) is not needed here.
func withPolicyStore(cmd *cobra.Command, identity string, fn func(context.Context, storage.PolicyStore) error) error {
	if identity == "" {
		return fmt.Errorf("--identity is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := openPolicyStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), store)
}

func openPolicyStore(cfg *config.Config) (storage.PolicyStore, func(), error) {
	if cfg.PolicyBackend == "charm" {
		store, err := storage.NewCharmPolicyStore(cfg.CharmDBName)
		if err != nil {
			return nil, nil, fmt.Errorf("open policy store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	}
	return storage.NewMemoryStore(), func() {}, nil
}
