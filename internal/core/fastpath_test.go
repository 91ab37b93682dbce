// ABOUTME: Tests for the offline fast-path classifier
// ABOUTME: Verifies personalization gating and the generic-question escape to inconclusive

package core

import "testing"

func TestClassifyFastPath(t *testing.T) {
	tests := []struct {
		name string
		text string
		want FastPathCategory
	}{
		// Greetings
		{"bare hi", "hi", FastPathGreeting},
		{"hello with punctuation", "Hello!", FastPathGreeting},
		{"hey there", "hey there", FastPathGreeting},
		{"long message starting with hi", "hi I was rear-ended yesterday and I need advice", FastPathInconclusive},

		// Explicit policy references
		{"my policy", "what does my policy cover", FastPathPolicyReference},
		{"my deductible", "what's my deductible", FastPathPolicyReference},
		{"my coverage", "does my coverage include rental cars", FastPathPolicyReference},
		{"possessive plus noun", "is our deductible too high", FastPathPolicyReference},
		{"possessive with word between", "my auto policy renewal date", FastPathPolicyReference},

		// Pricing requires personalization
		{"personalized pricing", "how much would insurance cost for me", FastPathPricing},
		{"i pay pricing", "i pay 200 a month, is that a fair rate", FastPathPricing},
		{"generic pricing stays inconclusive", "what's the average cost of renters insurance", FastPathInconclusive},
		{"generic how much stays inconclusive", "how much is car insurance these days", FastPathInconclusive},

		// Gap analysis requires personalization, and wins over pricing words
		{"am i covered", "am i covered for flood damage", FastPathGapAnalysis},
		{"gap beats pricing", "do i have enough coverage for the cost of rebuilding", FastPathGapAnalysis},
		{"generic gap stays inconclusive", "what does flood coverage usually include", FastPathInconclusive},

		// Inconclusive
		{"empty", "", FastPathInconclusive},
		{"whitespace", "   ", FastPathInconclusive},
		{"educational question", "what is an umbrella policy", FastPathInconclusive},
		{"off topic", "what's the weather like", FastPathInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFastPath(tt.text); got != tt.want {
				t.Errorf("ClassifyFastPath(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyFastPathDeterministic(t *testing.T) {
	text := "am i covered for hail damage"
	first := ClassifyFastPath(text)
	for i := 0; i < 3; i++ {
		if got := ClassifyFastPath(text); got != first {
			t.Fatalf("ClassifyFastPath not deterministic: %v vs %v", got, first)
		}
	}
}
