// ABOUTME: Tests for estimate command structure and flags
// ABOUTME: Verifies argument contract and lookup flag defaults

package commands

import (
	"testing"
)

func TestNewEstimateCmd(t *testing.T) {
	cmd := NewEstimateCmd()

	if cmd.Use != "estimate <policy-type>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "estimate <policy-type>")
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestEstimateCmd_Flags(t *testing.T) {
	cmd := NewEstimateCmd()

	tests := []struct {
		flagName string
		defValue string
	}{
		{"state", ""},
		{"age", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestEstimateCmd_RequiresExactlyOneArg(t *testing.T) {
	cmd := NewEstimateCmd()

	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("expected error with no args")
	}

	if err := cmd.Args(cmd, []string{"auto", "home"}); err == nil {
		t.Error("expected error with two args")
	}

	if err := cmd.Args(cmd, []string{"auto"}); err != nil {
		t.Errorf("unexpected error with one arg: %v", err)
	}
}
