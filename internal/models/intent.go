// ABOUTME: Intent classification result types with confidence scoring
// ABOUTME: Produced fresh each turn by the probabilistic classifier, never cached
package models

// IntentCategory is the closed set of categories the classifier may emit.
type IntentCategory string

const (
	IntentPolicyQuestion IntentCategory = "policy_question"
	IntentPricing        IntentCategory = "pricing"
	IntentGapAnalysis    IntentCategory = "gap_analysis"
	IntentEducational    IntentCategory = "educational"
	IntentUncertain      IntentCategory = "uncertain"
)

// Valid reports whether c is a known category.
func (c IntentCategory) Valid() bool {
	switch c {
	case IntentPolicyQuestion, IntentPricing, IntentGapAnalysis, IntentEducational, IntentUncertain:
		return true
	}
	return false
}

// Recommendation is the routing hint attached to a classified intent.
type Recommendation string

const (
	RecommendAnswer        Recommendation = "answer"
	RecommendQuickEstimate Recommendation = "quick_estimate"
	RecommendPreciseQuote  Recommendation = "precise_quote"
	RecommendOfferFork     Recommendation = "offer_fork"
)

// ImplicitRoutingConfidence is the threshold at or above which the
// recommendation is followed without asking a disambiguation question.
const ImplicitRoutingConfidence = 0.9

// Intent is a confidence-scored classification of one user utterance.
type Intent struct {
	Category       IntentCategory `json:"category"`
	Confidence     float64        `json:"confidence"`
	Signals        []string       `json:"signals,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}

// DefaultIntent is the locally-recovered result used whenever classification
// fails upstream or the response cannot be parsed.
func DefaultIntent() Intent {
	return Intent{
		Category:       IntentUncertain,
		Confidence:     0.5,
		Recommendation: RecommendOfferFork,
	}
}
