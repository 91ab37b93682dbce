// ABOUTME: Tests for the probabilistic intent classifier wrapper
// ABOUTME: Verifies contract enforcement and the default-on-any-failure recovery

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/coverly/advisor/internal/models"
)

// fakeIntentOracle returns one canned response or error and counts calls.
type fakeIntentOracle struct {
	response string
	err      error
	calls    int
}

func (f *fakeIntentOracle) ClassifyIntent(ctx context.Context, text string, recent []models.Message) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestClassify_WellFormedResponse(t *testing.T) {
	oracle := &fakeIntentOracle{
		response: `{"category":"pricing","confidence":0.95,"signals":["cost question"],"recommendation":"quick_estimate"}`,
	}
	c := NewIntentClassifier(oracle)

	intent := c.Classify(context.Background(), "how much is auto insurance", nil)
	if intent.Category != models.IntentPricing {
		t.Errorf("Category = %v, want pricing", intent.Category)
	}
	if intent.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", intent.Confidence)
	}
	if intent.Recommendation != models.RecommendQuickEstimate {
		t.Errorf("Recommendation = %v, want quick_estimate", intent.Recommendation)
	}
	if oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want exactly 1", oracle.calls)
	}
}

func TestClassify_JSONWrappedInProse(t *testing.T) {
	oracle := &fakeIntentOracle{
		response: "Here is my classification:\n```json\n{\"category\":\"educational\",\"confidence\":0.8,\"recommendation\":\"answer\"}\n```",
	}
	c := NewIntentClassifier(oracle)

	intent := c.Classify(context.Background(), "what is a deductible", nil)
	if intent.Category != models.IntentEducational {
		t.Errorf("Category = %v, want educational", intent.Category)
	}
}

func TestClassify_FailuresRecoverToDefault(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeIntentOracle
	}{
		{"oracle error", &fakeIntentOracle{err: errors.New("timeout")}},
		{"no JSON at all", &fakeIntentOracle{response: "I think this is about pricing."}},
		{"malformed JSON", &fakeIntentOracle{response: `{"category": pricing}`}},
		{"unknown category", &fakeIntentOracle{response: `{"category":"smalltalk","confidence":0.9,"recommendation":"answer"}`}},
	}

	want := models.DefaultIntent()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewIntentClassifier(tt.oracle)
			intent := c.Classify(context.Background(), "anything", nil)
			if intent.Category != want.Category {
				t.Errorf("Category = %v, want %v", intent.Category, want.Category)
			}
			if intent.Confidence != want.Confidence {
				t.Errorf("Confidence = %v, want %v", intent.Confidence, want.Confidence)
			}
			if intent.Recommendation != want.Recommendation {
				t.Errorf("Recommendation = %v, want %v", intent.Recommendation, want.Recommendation)
			}
			if tt.oracle.calls != 1 {
				t.Errorf("oracle calls = %d, want exactly 1 (no retries)", tt.oracle.calls)
			}
		})
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"above one", `{"category":"pricing","confidence":1.7,"recommendation":"quick_estimate"}`, 1},
		{"below zero", `{"category":"pricing","confidence":-0.2,"recommendation":"quick_estimate"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewIntentClassifier(&fakeIntentOracle{response: tt.response})
			intent := c.Classify(context.Background(), "x", nil)
			if intent.Confidence != tt.want {
				t.Errorf("Confidence = %v, want %v", intent.Confidence, tt.want)
			}
		})
	}
}

func TestClassify_UnknownRecommendationBecomesOfferFork(t *testing.T) {
	c := NewIntentClassifier(&fakeIntentOracle{
		response: `{"category":"pricing","confidence":0.7,"recommendation":"escalate_to_human"}`,
	})

	intent := c.Classify(context.Background(), "x", nil)
	if intent.Recommendation != models.RecommendOfferFork {
		t.Errorf("Recommendation = %v, want offer_fork", intent.Recommendation)
	}
}

func TestClassify_EducationalAlwaysAnswers(t *testing.T) {
	c := NewIntentClassifier(&fakeIntentOracle{
		response: `{"category":"educational","confidence":0.99,"recommendation":"offer_fork"}`,
	})

	intent := c.Classify(context.Background(), "what is an umbrella policy", nil)
	if intent.Recommendation != models.RecommendAnswer {
		t.Errorf("Recommendation = %v, want answer for educational intent", intent.Recommendation)
	}
}
