// ABOUTME: Probabilistic intent classifier invoked when the fast path is inconclusive
// ABOUTME: One bounded oracle call with defensive JSON parsing and a safe default
package core

import (
	"context"
	"encoding/json"
	"log"

	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/util"
)

// IntentOracle issues the single bounded classification call.
type IntentOracle interface {
	ClassifyIntent(ctx context.Context, text string, recent []models.Message) (string, error)
}

// IntentClassifier wraps the oracle with response-contract enforcement.
// Any upstream failure or unparseable response recovers locally to the
// default uncertain/offer-fork intent; classification never errors out.
type IntentClassifier struct {
	oracle IntentOracle
}

// NewIntentClassifier creates a classifier over an oracle.
func NewIntentClassifier(oracle IntentOracle) *IntentClassifier {
	return &IntentClassifier{oracle: oracle}
}

// rawIntent is the strict response contract expected from the oracle.
type rawIntent struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Signals        []string `json:"signals"`
	Recommendation string   `json:"recommendation"`
}

// Classify produces a fresh Intent for the utterance. Results are never
// cached across turns.
func (c *IntentClassifier) Classify(ctx context.Context, text string, recent []models.Message) models.Intent {
	raw, err := c.oracle.ClassifyIntent(ctx, text, recent)
	if err != nil {
		log.Printf("[Intent] classification call failed, using default: %v", err)
		return models.DefaultIntent()
	}

	obj, ok := util.FirstJSONObject(raw)
	if !ok {
		log.Printf("[Intent] no JSON object in classifier response, using default")
		return models.DefaultIntent()
	}

	var parsed rawIntent
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		log.Printf("[Intent] unparseable classifier response, using default: %v", err)
		return models.DefaultIntent()
	}

	intent := models.Intent{
		Category:       models.IntentCategory(parsed.Category),
		Confidence:     clamp01(parsed.Confidence),
		Signals:        parsed.Signals,
		Recommendation: models.Recommendation(parsed.Recommendation),
	}
	if !intent.Category.Valid() {
		return models.DefaultIntent()
	}

	switch intent.Recommendation {
	case models.RecommendAnswer, models.RecommendQuickEstimate, models.RecommendPreciseQuote, models.RecommendOfferFork:
	default:
		intent.Recommendation = models.RecommendOfferFork
	}

	// Educational questions never fork, regardless of confidence.
	if intent.Category == models.IntentEducational {
		intent.Recommendation = models.RecommendAnswer
	}

	return intent
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
