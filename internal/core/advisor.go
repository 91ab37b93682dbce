// ABOUTME: Per-turn orchestrator routing utterances to reply, estimate, or pipeline paths
// ABOUTME: Guarantees the user always receives a usable answer, marker-annotated at most once
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/coverly/advisor/internal/marker"
	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/ratebook"
	"github.com/coverly/advisor/internal/tools"
	"github.com/coverly/advisor/internal/util"
)

// Fixed user-facing strings. These never carry technical detail.
const (
	GreetingReply = "Hi! I'm Coverly, your insurance advisor. I can explain coverage, give you a quick ballpark estimate, or dig into a policy you've uploaded. What can I help with?"

	ApologyReply = "I'm sorry, I wasn't able to put together an answer just now. Please try again in a moment."

	uploadPromptFirst = "I don't have any of your policies on file yet. Upload a policy document and I can answer questions about your actual coverage."

	forkPrompt = "I can help with that two ways: a quick estimate based on typical rates, or a precise quote based on your own policy details. Reply \"quick estimate\" or \"precise quote\"."

	askPolicyTypeReply = "Happy to give you a ballpark. Which coverage do you want priced: auto, home, renters, umbrella, life, or health?"
)

// maxContextTokens bounds the retrieved context handed to the Draft stage.
const maxContextTokens = 2000

// EstimateFramer optionally generates prose framing for an estimate. The
// framing never carries the figures; those come from the ratebook alone.
type EstimateFramer interface {
	FrameEstimate(ctx context.Context, query string) (string, bool, error)
}

// Advisor is the per-turn conversational core. One Advisor serves many
// concurrent turns: it holds no per-conversation state, only collaborators.
type Advisor struct {
	resolver *Resolver
	intents  *IntentClassifier
	pipeline *Pipeline
	ratebook *ratebook.Ratebook
	framer   EstimateFramer // optional
	tools    *tools.Pool    // optional
}

// NewAdvisor wires the core. framer and toolPool may be nil.
func NewAdvisor(resolver *Resolver, intents *IntentClassifier, pipeline *Pipeline, rb *ratebook.Ratebook, framer EstimateFramer, toolPool *tools.Pool) *Advisor {
	return &Advisor{
		resolver: resolver,
		intents:  intents,
		pipeline: pipeline,
		ratebook: rb,
		framer:   framer,
		tools:    toolPool,
	}
}

// TurnInput is one inbound user turn.
type TurnInput struct {
	Transcript     models.Transcript
	Message        string
	Identity       string
	PolicyOverride models.PolicyType
}

// TurnOutput is the core's reply: plain text plus at most one marker.
type TurnOutput struct {
	Text   string
	Marker marker.Marker
}

// Wire returns the marker-annotated text for the presentation layer.
func (o TurnOutput) Wire() string {
	return marker.Annotate(o.Text, o.Marker)
}

// Respond handles one turn. Internal stage failures degrade to the best
// available answer; only infrastructure failures (stores) surface as
// errors, and callers must map those to a non-technical apology.
func (a *Advisor) Respond(ctx context.Context, in TurnInput) (TurnOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return TurnOutput{Text: GreetingReply}, nil
	}

	category := ClassifyFastPath(message)
	if category == FastPathGreeting && len(in.Transcript) == 0 {
		return TurnOutput{Text: GreetingReply}, nil
	}

	// Journey state covers prior turns plus hints in the current message.
	full := append(in.Transcript.Clone(), models.Message{Role: models.RoleUser, Content: message})
	journey := ReconstructJourney(full)

	need := DetectNeededType(message)
	if in.PolicyOverride.Valid() {
		need = in.PolicyOverride
	}

	switch category {
	case FastPathPolicyReference, FastPathGapAnalysis:
		return a.respondFromPolicy(ctx, message, in.Identity, need)
	case FastPathPricing:
		return a.respondPricing(ctx, message, in.Identity, need, journey)
	default:
		return a.respondClassified(ctx, message, in, need, journey)
	}
}

// respondClassified handles the inconclusive path: one bounded classifier
// call, then routing by confidence and recommendation.
func (a *Advisor) respondClassified(ctx context.Context, message string, in TurnInput, need models.PolicyType, journey models.JourneyState) (TurnOutput, error) {
	intent := a.intents.Classify(ctx, message, in.Transcript.Tail(6))

	if intent.Category == models.IntentEducational {
		return a.respondAnalytical(ctx, message, in.Identity, need)
	}

	if intent.Confidence >= models.ImplicitRoutingConfidence {
		// Implicit routing: skip the disambiguation question entirely.
		switch intent.Recommendation {
		case models.RecommendQuickEstimate:
			return a.respondEstimate(ctx, message, journey, need)
		case models.RecommendPreciseQuote:
			return a.respondPreciseQuote(ctx, message, in.Identity, need)
		default:
			return a.respondAnalytical(ctx, message, in.Identity, need)
		}
	}

	switch intent.Recommendation {
	case models.RecommendAnswer:
		return a.respondAnalytical(ctx, message, in.Identity, need)
	case models.RecommendQuickEstimate, models.RecommendPreciseQuote, models.RecommendOfferFork:
		return a.respondPricing(ctx, message, in.Identity, need, journey)
	default:
		return a.respondAnalytical(ctx, message, in.Identity, need)
	}
}

// respondPricing routes a pricing need through the journey fork. The binary
// choice is offered at most once per conversation.
func (a *Advisor) respondPricing(ctx context.Context, message, identity string, need models.PolicyType, journey models.JourneyState) (TurnOutput, error) {
	switch journey.Choice {
	case models.JourneyQuickEstimate:
		return a.respondEstimate(ctx, message, journey, need)
	case models.JourneyPreciseQuote:
		return a.respondPreciseQuote(ctx, message, identity, need)
	}

	if !journey.AskedForFork {
		return TurnOutput{Text: forkPrompt, Marker: marker.OfferFork}, nil
	}

	// Fork already offered and never answered: default to the quick path
	// rather than asking again.
	return a.respondEstimate(ctx, message, journey, need)
}

// respondEstimate runs the deterministic estimate engine. Figures come from
// the ratebook only; the disclaimer suffix cannot be displaced by generated
// prose because it is appended after all generation.
func (a *Advisor) respondEstimate(ctx context.Context, message string, journey models.JourneyState, need models.PolicyType) (TurnOutput, error) {
	policyType := need
	if policyType == "" {
		policyType = journey.Profile.PolicyType
	}
	if policyType == "" {
		return TurnOutput{Text: askPolicyTypeReply}, nil
	}

	state := journey.Profile.State
	if code := DetectStateCode(message); code != "" {
		state = code
	}

	est, err := a.ratebook.Estimate(policyType, state, journey.Profile.AgeRange)
	if err != nil {
		if errors.Is(err, ratebook.ErrNoRates) {
			return TurnOutput{Text: askPolicyTypeReply}, nil
		}
		return TurnOutput{}, err
	}

	framing := ""
	if a.framer != nil {
		text, truncated, err := a.framer.FrameEstimate(ctx, message)
		if err != nil {
			log.Printf("[Advisor] estimate framing degraded to bare range: %v", err)
		} else {
			if truncated {
				text = util.TrimToSentenceBoundary(text)
			}
			framing = strings.TrimSpace(text)
		}
	}

	return TurnOutput{Text: est.Render(framing)}, nil
}

// respondFromPolicy answers a question about the user's own coverage.
func (a *Advisor) respondFromPolicy(ctx context.Context, message, identity string, need models.PolicyType) (TurnOutput, error) {
	res, err := a.resolver.Resolve(ctx, identity, need)
	if err != nil {
		return TurnOutput{}, err
	}

	switch res.Kind {
	case ResolutionMatch:
		return a.runPipeline(ctx, message, identity, a.policyContext(ctx, identity, res.Record))
	case ResolutionWrongType:
		return TurnOutput{
			Text:   wrongTypeReply(res.Have, res.Need),
			Marker: marker.RequestUpload,
		}, nil
	default:
		return TurnOutput{Text: uploadPromptFirst, Marker: marker.RequestUpload}, nil
	}
}

// respondPreciseQuote needs the user's own policy details; without them the
// reply asks for an upload.
func (a *Advisor) respondPreciseQuote(ctx context.Context, message, identity string, need models.PolicyType) (TurnOutput, error) {
	res, err := a.resolver.Resolve(ctx, identity, need)
	if err != nil {
		return TurnOutput{}, err
	}

	switch res.Kind {
	case ResolutionMatch:
		return a.runPipeline(ctx, message, identity, a.policyContext(ctx, identity, res.Record))
	case ResolutionWrongType:
		return TurnOutput{
			Text:   wrongTypeReply(res.Have, res.Need),
			Marker: marker.RequestUpload,
		}, nil
	default:
		return TurnOutput{
			Text:   "For a precise quote I need your actual policy details. Upload your current policy and I'll work from the real numbers.",
			Marker: marker.RequestUpload,
		}, nil
	}
}

// respondAnalytical runs the pipeline without requiring a policy on file,
// attaching one as context when it happens to match.
func (a *Advisor) respondAnalytical(ctx context.Context, message, identity string, need models.PolicyType) (TurnOutput, error) {
	retrieved := ""
	if identity != "" {
		res, err := a.resolver.Resolve(ctx, identity, need)
		if err != nil {
			return TurnOutput{}, err
		}
		if res.Kind == ResolutionMatch {
			retrieved = a.policyContext(ctx, identity, res.Record)
		}
	}
	return a.runPipeline(ctx, message, identity, retrieved)
}

// runPipeline executes Draft -> Review -> Present. A Draft failure is
// terminal for the turn: the fixed apology goes out with no marker and no
// further stage calls.
func (a *Advisor) runPipeline(ctx context.Context, message, identity, retrieved string) (TurnOutput, error) {
	result, err := a.pipeline.Run(ctx, message, retrieved)
	if err != nil {
		log.Printf("[Advisor] pipeline terminal failure: %v", err)
		return TurnOutput{Text: ApologyReply}, nil
	}
	if result.Degraded {
		log.Printf("[Advisor] serving degraded pipeline output")
	}
	return TurnOutput{Text: result.Text}, nil
}

// policyContext assembles the Draft stage's retrieved context from the
// matched record plus, when the transport is available, a structured rate
// lookup. The transport is acquired before use and released on every exit
// path.
func (a *Advisor) policyContext(ctx context.Context, identity string, record *models.PolicyRecord) string {
	var sb strings.Builder
	sb.WriteString("POLICY ON FILE:\n")
	sb.WriteString(fmt.Sprintf("Type: %s\n", record.Type))
	if record.Carrier != "" {
		sb.WriteString(fmt.Sprintf("Carrier: %s\n", record.Carrier))
	}
	for key, value := range record.StructuredFields {
		sb.WriteString(fmt.Sprintf("%s: %s\n", key, value))
	}
	sb.WriteString("\nANALYSIS:\n")
	sb.WriteString(record.AnalysisText)
	sb.WriteString("\n")

	if a.tools != nil && identity != "" {
		if extra := a.lookupRateFactors(ctx, identity, record.Type); extra != "" {
			sb.WriteString("\nRATE FACTORS:\n")
			sb.WriteString(extra)
			sb.WriteString("\n")
		}
	}

	context := sb.String()
	if util.EstimateTokens(context) > maxContextTokens {
		context = context[:maxContextTokens*4]
	}
	return context
}

// lookupRateFactors queries the shared tool transport. Lookup failure only
// costs the extra context, never the turn.
func (a *Advisor) lookupRateFactors(ctx context.Context, identity string, policyType models.PolicyType) string {
	conn, err := a.tools.Acquire(ctx, identity)
	if err != nil {
		log.Printf("[Advisor] tool transport unavailable: %v", err)
		return ""
	}
	defer conn.Release()

	result, err := conn.Execute(ctx, tools.Query{
		Tool: "rate_factors",
		Args: map[string]any{
			"identity":    identity,
			"policy_type": string(policyType),
		},
	})
	if err != nil {
		log.Printf("[Advisor] rate factor lookup failed: %v", err)
		return ""
	}
	return result.Text
}

func wrongTypeReply(have []models.PolicyType, need models.PolicyType) string {
	names := make([]string, 0, len(have))
	seen := map[models.PolicyType]bool{}
	for _, t := range have {
		if !seen[t] {
			seen[t] = true
			names = append(names, string(t))
		}
	}
	plural := "policy"
	if len(names) > 1 {
		plural = "policies"
	}
	return fmt.Sprintf(
		"I have your %s %s on file, but not %s coverage, so I can't answer this from your documents yet. Upload your %s policy and I'll take a look.",
		strings.Join(names, " and "), plural, need, need)
}
