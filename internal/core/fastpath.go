// ABOUTME: Fast-path classifier resolving obvious intents without any upstream call
// ABOUTME: Pure keyword and possessive-pattern matching over normalized text
package core

import "strings"

// FastPathCategory is the result of offline classification. Inconclusive
// hands the turn to the probabilistic classifier.
type FastPathCategory string

const (
	FastPathInconclusive    FastPathCategory = "inconclusive"
	FastPathGreeting        FastPathCategory = "greeting"
	FastPathPolicyReference FastPathCategory = "policy_reference"
	FastPathPricing         FastPathCategory = "pricing"
	FastPathGapAnalysis     FastPathCategory = "gap_analysis"
)

// Disjoint keyword tables per category. Matching is substring-based over
// lowercased, trimmed input and never performs I/O.
var (
	greetingPhrases = []string{
		"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
		"howdy", "yo", "hi there", "hello there",
	}

	// Explicit references to the user's own policy.
	explicitPolicyPhrases = []string{
		"my policy", "my policies", "my coverage", "my plan", "my carrier",
		"my insurance", "my deductible", "my premium", "my claim",
	}

	// Pricing keywords; only counted when the message is personalized.
	pricingKeywords = []string{
		"how much", "cost", "price", "pricing", "quote", "premium", "rate",
		"estimate", "afford", "monthly payment",
	}

	// Gap-analysis keywords; only counted when the message is personalized.
	gapKeywords = []string{
		"am i covered", "are we covered", "covered for", "coverage gap",
		"enough coverage", "underinsured", "fully covered", "what happens if",
		"what if",
	}

	// Possessive markers satisfying the personalization check.
	possessiveMarkers = []string{
		"my ", "mine", "our ", "i am", "i'm", "i have", "i've", "i need",
		"i pay", "for me", "for us", "do i", "should i", "am i", "we have",
	}

	// Coverage nouns that pair with a possessive into a policy reference.
	coverageNouns = []string{
		"deductible", "premium", "coverage", "policy", "limit", "limits",
		"claim", "rider", "exclusion", "copay", "carrier",
	}
)

// ClassifyFastPath classifies a user utterance offline. A bare generic
// question ("what's the average cost of insurance") stays inconclusive:
// pricing and gap keywords only count once the message is personalized.
func ClassifyFastPath(text string) FastPathCategory {
	norm := normalize(text)
	if norm == "" {
		return FastPathInconclusive
	}

	if isGreeting(norm) {
		return FastPathGreeting
	}

	if containsAny(norm, explicitPolicyPhrases) {
		return FastPathPolicyReference
	}
	if hasPossessiveCoverageNoun(norm) {
		return FastPathPolicyReference
	}

	if !isPersonalized(norm) {
		return FastPathInconclusive
	}
	// Gap phrases often contain pricing words ("enough coverage for the
	// cost"), so they are checked first.
	if containsAny(norm, gapKeywords) {
		return FastPathGapAnalysis
	}
	if containsAny(norm, pricingKeywords) {
		return FastPathPricing
	}

	return FastPathInconclusive
}

func normalize(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(norm, "!.?, ")
}

func isGreeting(norm string) bool {
	if len(strings.Fields(norm)) > 4 {
		return false
	}
	for _, phrase := range greetingPhrases {
		if norm == phrase || strings.HasPrefix(norm, phrase+" ") {
			return true
		}
	}
	return false
}

func isPersonalized(norm string) bool {
	padded := " " + norm
	for _, marker := range possessiveMarkers {
		if strings.Contains(padded, " "+marker) {
			return true
		}
	}
	return false
}

// hasPossessiveCoverageNoun matches "my <noun>" and "our <noun>", allowing
// one word between the possessive and the coverage noun ("my auto policy").
func hasPossessiveCoverageNoun(norm string) bool {
	words := strings.Fields(norm)
	for i, word := range words {
		if word != "my" && word != "our" {
			continue
		}
		for j := i + 1; j <= i+2 && j < len(words); j++ {
			if containsAny(strings.Trim(words[j], ".,!?'\""), coverageNouns) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
