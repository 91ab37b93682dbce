// ABOUTME: Tests for the per-turn orchestrator
// ABOUTME: Covers routing scenarios end to end with fake oracles and stores

package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/coverly/advisor/internal/marker"
	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/ratebook"
	"github.com/coverly/advisor/internal/tools"
)

// fakeFramer optionally fails or returns canned framing prose.
type fakeFramer struct {
	text  string
	err   error
	calls int
}

func (f *fakeFramer) FrameEstimate(ctx context.Context, query string) (string, bool, error) {
	f.calls++
	return f.text, false, f.err
}

// fakeToolExecutor serves rate-factor lookups.
type fakeToolExecutor struct {
	text  string
	calls int
}

func (f *fakeToolExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	f.calls++
	return f.text, nil
}

// testHarness bundles the advisor with its fakes so assertions can reach them.
type testHarness struct {
	advisor *Advisor
	intents *fakeIntentOracle
	stages  *stageFake
	reader  *fakePolicyReader
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	rb, err := ratebook.Load("")
	if err != nil {
		t.Fatalf("ratebook.Load() error = %v", err)
	}

	intents := &fakeIntentOracle{err: errors.New("classifier not configured for this test")}
	stages := newStageFake()
	reader := &fakePolicyReader{records: map[string][]models.PolicyRecord{}}

	h := &testHarness{intents: intents, stages: stages, reader: reader}
	h.advisor = NewAdvisor(
		NewResolver(reader),
		NewIntentClassifier(intents),
		NewPipeline(stages, stages, stages),
		rb,
		nil,
		nil,
	)
	return h
}

func (h *testHarness) respond(t *testing.T, in TurnInput) TurnOutput {
	t.Helper()
	out, err := h.advisor.Respond(context.Background(), in)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	return out
}

func TestRespond_EmptyMessage(t *testing.T) {
	h := newHarness(t)

	out := h.respond(t, TurnInput{Message: "   "})
	if out.Text != GreetingReply {
		t.Errorf("Text = %q, want the greeting", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none", out.Marker)
	}
}

func TestRespond_GreetingOnFreshConversation(t *testing.T) {
	h := newHarness(t)

	out := h.respond(t, TurnInput{Message: "hello!"})
	if out.Text != GreetingReply {
		t.Errorf("Text = %q, want the greeting", out.Text)
	}
	if h.intents.calls != 0 || h.stages.draftCalls != 0 {
		t.Errorf("greeting hit upstream: intents=%d drafts=%d, want 0/0",
			h.intents.calls, h.stages.draftCalls)
	}
}

func TestRespond_PolicyQuestionNothingOnFile(t *testing.T) {
	h := newHarness(t)

	out := h.respond(t, TurnInput{Message: "what's my deductible", Identity: "u@example.com"})
	if out.Text != uploadPromptFirst {
		t.Errorf("Text = %q, want the first-upload prompt", out.Text)
	}
	if out.Marker != marker.RequestUpload {
		t.Errorf("Marker = %v, want request_upload", out.Marker)
	}
	if h.stages.draftCalls != 0 {
		t.Errorf("draft calls = %d, want 0 with nothing on file", h.stages.draftCalls)
	}
}

func TestRespond_PolicyQuestionWithMatch(t *testing.T) {
	h := newHarness(t)
	h.reader.records["u@example.com"] = []models.PolicyRecord{{
		RecordID:     "rec_auto",
		Type:         models.PolicyAuto,
		Carrier:      "Acme Mutual",
		AnalysisText: "Collision deductible is $500.",
	}}

	out := h.respond(t, TurnInput{Message: "what's my deductible", Identity: "u@example.com"})
	if out.Text != "Presented answer." {
		t.Errorf("Text = %q, want pipeline output", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none", out.Marker)
	}
	if !strings.Contains(h.stages.lastDraftContext, "POLICY ON FILE") {
		t.Errorf("draft context missing policy header: %q", h.stages.lastDraftContext)
	}
	if !strings.Contains(h.stages.lastDraftContext, "Collision deductible is $500.") {
		t.Errorf("draft context missing analysis text: %q", h.stages.lastDraftContext)
	}
}

func TestRespond_PolicyQuestionWrongType(t *testing.T) {
	h := newHarness(t)
	h.reader.records["u@example.com"] = []models.PolicyRecord{{
		RecordID: "rec_home", Type: models.PolicyHome,
	}}

	out := h.respond(t, TurnInput{Message: "what does my auto policy cover", Identity: "u@example.com"})
	if out.Marker != marker.RequestUpload {
		t.Errorf("Marker = %v, want request_upload", out.Marker)
	}
	if !strings.Contains(out.Text, "home") || !strings.Contains(out.Text, "auto") {
		t.Errorf("Text = %q, want both the held and the needed type named", out.Text)
	}
	if h.stages.draftCalls != 0 {
		t.Errorf("draft calls = %d, want 0 on wrong-type", h.stages.draftCalls)
	}
}

func TestRespond_PricingOffersForkOnce(t *testing.T) {
	h := newHarness(t)

	out := h.respond(t, TurnInput{Message: "how much would car insurance cost for me"})
	if out.Text != forkPrompt {
		t.Errorf("Text = %q, want the fork prompt", out.Text)
	}
	if out.Marker != marker.OfferFork {
		t.Errorf("Marker = %v, want offer_fork", out.Marker)
	}
	if h.intents.calls != 0 {
		t.Errorf("intent calls = %d, want 0 on the fast path", h.intents.calls)
	}
}

func TestRespond_ForkChoiceQuickEstimate(t *testing.T) {
	h := newHarness(t)

	transcript := models.Transcript{
		{Role: models.RoleUser, Content: "how much would car insurance cost for me"},
		{Role: models.RoleAssistant, Content: marker.Annotate(forkPrompt, marker.OfferFork)},
	}

	out := h.respond(t, TurnInput{Transcript: transcript, Message: "quick estimate"})
	if !strings.Contains(out.Text, "$120 to $190") {
		t.Errorf("Text = %q, want the national auto range", out.Text)
	}
	if !strings.HasSuffix(out.Text, h.advisor.ratebook.Disclaimer()) {
		t.Errorf("Text does not end with the disclaimer:\n%s", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none", out.Marker)
	}
}

func TestRespond_ForkNeverOfferedTwice(t *testing.T) {
	h := newHarness(t)

	// The fork was offered and the user changed the subject instead of
	// choosing. The next pricing question defaults to the quick path.
	transcript := models.Transcript{
		{Role: models.RoleUser, Content: "how much would car insurance cost for me"},
		{Role: models.RoleAssistant, Content: marker.Annotate(forkPrompt, marker.OfferFork)},
		{Role: models.RoleUser, Content: "actually, first: what is a deductible?"},
		{Role: models.RoleAssistant, Content: "A deductible is what you pay before coverage kicks in."},
	}

	out := h.respond(t, TurnInput{Transcript: transcript, Message: "ok so how much do i pay for my car"})
	if out.Marker == marker.OfferFork {
		t.Fatal("fork offered a second time in the same conversation")
	}
	if !strings.HasSuffix(out.Text, h.advisor.ratebook.Disclaimer()) {
		t.Errorf("Text = %q, want a quick estimate by default", out.Text)
	}
}

func TestRespond_ImplicitRoutingOnHighConfidence(t *testing.T) {
	h := newHarness(t)
	h.intents.err = nil
	h.intents.response = `{"category":"pricing","confidence":0.95,"signals":["cost question"],"recommendation":"quick_estimate"}`

	out := h.respond(t, TurnInput{Message: "roughly how much is auto insurance in CA"})
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none (implicit routing skips the fork)", out.Marker)
	}
	if !strings.Contains(out.Text, "$155 to $230") {
		t.Errorf("Text = %q, want the CA auto range", out.Text)
	}
	if h.intents.calls != 1 {
		t.Errorf("intent calls = %d, want exactly 1", h.intents.calls)
	}
}

func TestRespond_ThresholdConfidenceRoutesImplicitly(t *testing.T) {
	h := newHarness(t)
	h.intents.err = nil
	// Exactly at the threshold counts as implicit routing.
	h.intents.response = `{"category":"pricing","confidence":0.9,"recommendation":"quick_estimate"}`

	out := h.respond(t, TurnInput{Message: "thinking about insurance for a new car"})
	if out.Marker == marker.OfferFork {
		t.Error("fork offered at the implicit-routing threshold")
	}
	if !strings.HasSuffix(out.Text, h.advisor.ratebook.Disclaimer()) {
		t.Errorf("Text = %q, want a quick estimate", out.Text)
	}
}

func TestRespond_MidConfidenceStillForks(t *testing.T) {
	h := newHarness(t)
	h.intents.err = nil
	h.intents.response = `{"category":"pricing","confidence":0.7,"recommendation":"quick_estimate"}`

	out := h.respond(t, TurnInput{Message: "thinking about insurance for a new car"})
	if out.Marker != marker.OfferFork {
		t.Errorf("Marker = %v, want offer_fork below the threshold", out.Marker)
	}
}

func TestRespond_ClassifierFailureFallsBackToFork(t *testing.T) {
	h := newHarness(t)
	h.intents.err = errors.New("upstream down")

	out := h.respond(t, TurnInput{Message: "wondering about getting covered before the trip"})
	if out.Marker != marker.OfferFork {
		t.Errorf("Marker = %v, want offer_fork from the default intent", out.Marker)
	}
	if h.intents.calls != 1 {
		t.Errorf("intent calls = %d, want exactly 1 (no retries)", h.intents.calls)
	}
}

func TestRespond_EducationalAnswersDirectly(t *testing.T) {
	h := newHarness(t)
	h.intents.err = nil
	h.intents.response = `{"category":"educational","confidence":0.85,"recommendation":"answer"}`

	out := h.respond(t, TurnInput{Message: "what is an umbrella policy"})
	if out.Text != "Presented answer." {
		t.Errorf("Text = %q, want pipeline output", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none", out.Marker)
	}
}

func TestRespond_DraftFailureSendsApology(t *testing.T) {
	h := newHarness(t)
	h.intents.err = nil
	h.intents.response = `{"category":"educational","confidence":0.85,"recommendation":"answer"}`
	h.stages.draftErr = errors.New("model unavailable")

	out := h.respond(t, TurnInput{Message: "what is an umbrella policy"})
	if out.Text != ApologyReply {
		t.Errorf("Text = %q, want the fixed apology", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none on the apology", out.Marker)
	}
	if h.stages.draftCalls != 1 {
		t.Errorf("draft calls = %d, want exactly 1 (no retries)", h.stages.draftCalls)
	}
}

func TestRespond_EstimateAsksForPolicyTypeWhenUnknown(t *testing.T) {
	h := newHarness(t)

	transcript := models.Transcript{
		{Role: models.RoleAssistant, Content: marker.Annotate(forkPrompt, marker.OfferFork)},
	}

	out := h.respond(t, TurnInput{Transcript: transcript, Message: "quick estimate"})
	if out.Text != askPolicyTypeReply {
		t.Errorf("Text = %q, want the coverage-line question", out.Text)
	}
	if out.Marker != marker.None {
		t.Errorf("Marker = %v, want none", out.Marker)
	}
}

func TestRespond_PreciseQuoteWithoutRecordsAsksForUpload(t *testing.T) {
	h := newHarness(t)

	transcript := models.Transcript{
		{Role: models.RoleUser, Content: "how much would car insurance cost for me"},
		{Role: models.RoleAssistant, Content: marker.Annotate(forkPrompt, marker.OfferFork)},
	}

	out := h.respond(t, TurnInput{Transcript: transcript, Message: "precise quote", Identity: "u@example.com"})
	if out.Marker != marker.RequestUpload {
		t.Errorf("Marker = %v, want request_upload", out.Marker)
	}
	if h.stages.draftCalls != 0 {
		t.Errorf("draft calls = %d, want 0 without a policy on file", h.stages.draftCalls)
	}
}

func TestRespond_PolicyOverrideWins(t *testing.T) {
	h := newHarness(t)
	h.reader.records["u@example.com"] = []models.PolicyRecord{{
		RecordID: "rec_home", Type: models.PolicyHome, AnalysisText: "Dwelling limit $400k.",
	}}

	// The message says "car" but the surface pinned the home policy.
	out := h.respond(t, TurnInput{
		Message:        "is my car policy limit enough",
		Identity:       "u@example.com",
		PolicyOverride: models.PolicyHome,
	})
	if out.Text != "Presented answer." {
		t.Errorf("Text = %q, want pipeline output for the overridden type", out.Text)
	}
	if !strings.Contains(h.stages.lastDraftContext, "Dwelling limit $400k.") {
		t.Errorf("draft context = %q, want home policy context", h.stages.lastDraftContext)
	}
}

func TestRespond_EstimateFramingDegradesSilently(t *testing.T) {
	h := newHarness(t)
	framer := &fakeFramer{err: errors.New("framing model down")}
	h.advisor.framer = framer
	h.intents.err = nil
	h.intents.response = `{"category":"pricing","confidence":0.95,"recommendation":"quick_estimate"}`

	out := h.respond(t, TurnInput{Message: "roughly how much is auto insurance in CA"})
	if !strings.HasPrefix(out.Text, "Typical auto insurance") {
		t.Errorf("Text = %q, want the bare range when framing fails", out.Text)
	}
	if !strings.HasSuffix(out.Text, h.advisor.ratebook.Disclaimer()) {
		t.Errorf("Text does not end with the disclaimer:\n%s", out.Text)
	}
	if framer.calls != 1 {
		t.Errorf("framer calls = %d, want exactly 1", framer.calls)
	}
}

func TestRespond_EstimateFramingPrepended(t *testing.T) {
	h := newHarness(t)
	h.advisor.framer = &fakeFramer{text: "Good news: this line is usually affordable."}
	h.intents.err = nil
	h.intents.response = `{"category":"pricing","confidence":0.95,"recommendation":"quick_estimate"}`

	out := h.respond(t, TurnInput{Message: "roughly how much is renters insurance in NY"})
	if !strings.HasPrefix(out.Text, "Good news:") {
		t.Errorf("Text = %q, want framing first", out.Text)
	}
	if !strings.Contains(out.Text, "$15 to $32") {
		t.Errorf("Text = %q, want the NY renters range", out.Text)
	}
	if !strings.HasSuffix(out.Text, h.advisor.ratebook.Disclaimer()) {
		t.Errorf("Text does not end with the disclaimer:\n%s", out.Text)
	}
}

func TestRespond_RateFactorsJoinPolicyContext(t *testing.T) {
	h := newHarness(t)
	exec := &fakeToolExecutor{text: "Clean driving record, multi-policy discount."}
	h.advisor.tools = tools.NewPool(exec, []string{"rate_factors"})
	h.reader.records["u@example.com"] = []models.PolicyRecord{{
		RecordID: "rec_auto", Type: models.PolicyAuto, AnalysisText: "Liability 100/300.",
	}}

	out := h.respond(t, TurnInput{Message: "what's my premium based on", Identity: "u@example.com"})
	if out.Text != "Presented answer." {
		t.Errorf("Text = %q, want pipeline output", out.Text)
	}
	if !strings.Contains(h.stages.lastDraftContext, "RATE FACTORS") {
		t.Errorf("draft context missing rate factors section: %q", h.stages.lastDraftContext)
	}
	if !strings.Contains(h.stages.lastDraftContext, "multi-policy discount") {
		t.Errorf("draft context missing tool payload: %q", h.stages.lastDraftContext)
	}
	if exec.calls != 1 {
		t.Errorf("tool calls = %d, want 1", exec.calls)
	}
}

func TestRespond_GapAnalysisRoutesToPolicy(t *testing.T) {
	h := newHarness(t)
	h.reader.records["u@example.com"] = []models.PolicyRecord{{
		RecordID: "rec_home", Type: models.PolicyHome, AnalysisText: "No flood rider.",
	}}

	out := h.respond(t, TurnInput{Message: "am i covered for flood damage at the house", Identity: "u@example.com"})
	if out.Text != "Presented answer." {
		t.Errorf("Text = %q, want pipeline output", out.Text)
	}
	if !strings.Contains(h.stages.lastDraftContext, "No flood rider.") {
		t.Errorf("draft context = %q, want the home analysis", h.stages.lastDraftContext)
	}
}
