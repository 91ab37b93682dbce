// ABOUTME: Tests for transcript helpers
// ABOUTME: Verifies Clone isolation and Tail bounds

package models

import "testing"

func TestTranscriptClone(t *testing.T) {
	original := Transcript{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	}

	clone := original.Clone()
	clone[0].Content = "changed"

	if original[0].Content != "hello" {
		t.Errorf("original mutated through clone: %q", original[0].Content)
	}

	// Appending to the clone must not spill into the original's backing array.
	_ = append(clone, Message{Role: RoleUser, Content: "extra"})
	if len(original) != 2 {
		t.Errorf("len(original) = %d after append to clone, want 2", len(original))
	}
}

func TestTranscriptTail(t *testing.T) {
	transcript := Transcript{
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "two"},
		{Role: RoleUser, Content: "three"},
	}

	tests := []struct {
		n        int
		wantLen  int
		wantLast string
	}{
		{2, 2, "three"},
		{3, 3, "three"},
		{10, 3, "three"},
		{0, 3, "three"},
	}

	for _, tt := range tests {
		got := transcript.Tail(tt.n)
		if len(got) != tt.wantLen {
			t.Errorf("Tail(%d) len = %d, want %d", tt.n, len(got), tt.wantLen)
		}
		if got[len(got)-1].Content != tt.wantLast {
			t.Errorf("Tail(%d) last = %q, want %q", tt.n, got[len(got)-1].Content, tt.wantLast)
		}
	}
}
