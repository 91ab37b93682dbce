// ABOUTME: Draft -> Review -> Present pipeline with degrade-on-failure chaining
// ABOUTME: No retries and no backward transitions; each stage falls back to its predecessor
package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/util"
)

// ErrDraftFailed marks the one terminal pipeline failure: with no prior
// stage to fall back to, the turn ends with the fixed apology.
var ErrDraftFailed = errors.New("pipeline: draft stage failed")

// DraftOracle generates the factual draft from retrieved context.
type DraftOracle interface {
	GenerateDraft(ctx context.Context, query, retrievedContext string) (answer string, truncated bool, err error)
}

// ReviewOracle checks a draft against its source context.
type ReviewOracle interface {
	Review(ctx context.Context, query, answer, sourceContext string) (reviewed string, truncated bool, err error)
}

// PresentOracle rephrases a reviewed answer in the advisor's voice.
type PresentOracle interface {
	Present(ctx context.Context, query, answer string) (presented string, truncated bool, err error)
}

// Pipeline chains the three generation stages. Flow is one-directional:
// Review consumes Draft's output and Present consumes Review's, so ordering
// is enforced by data flow alone.
type Pipeline struct {
	draft   DraftOracle
	review  ReviewOracle
	present PresentOracle
}

// NewPipeline wires the three stage oracles.
func NewPipeline(draft DraftOracle, review ReviewOracle, present PresentOracle) *Pipeline {
	return &Pipeline{draft: draft, review: review, present: present}
}

// Run executes the full chain. A Review or Present failure degrades to the
// prior stage's output with Degraded set; only a Draft failure returns an
// error, wrapped in ErrDraftFailed.
func (p *Pipeline) Run(ctx context.Context, query, retrievedContext string) (models.StageResult, error) {
	answer, truncated, err := p.draft.GenerateDraft(ctx, query, retrievedContext)
	if err != nil {
		return models.StageResult{}, fmt.Errorf("%w: %v", ErrDraftFailed, err)
	}
	draft := models.StageResult{
		Text:          finishText(answer, truncated),
		SourceContext: retrievedContext,
	}

	review := p.runReview(ctx, query, draft)
	presented := p.runPresent(ctx, query, review)
	presented.SourceContext = draft.SourceContext
	return presented, nil
}

func (p *Pipeline) runReview(ctx context.Context, query string, draft models.StageResult) models.StageResult {
	reviewed, truncated, err := p.review.Review(ctx, query, draft.Text, draft.SourceContext)
	if err != nil {
		// Designed fallback, not an error: the draft is the best
		// available answer.
		log.Printf("[Pipeline] review stage degraded to draft output: %v", err)
		return models.StageResult{Text: draft.Text, SourceContext: draft.SourceContext, Degraded: true}
	}
	return models.StageResult{Text: finishText(reviewed, truncated), SourceContext: draft.SourceContext}
}

func (p *Pipeline) runPresent(ctx context.Context, query string, review models.StageResult) models.StageResult {
	presented, truncated, err := p.present.Present(ctx, query, review.Text)
	if err != nil {
		log.Printf("[Pipeline] present stage degraded to review output: %v", err)
		return models.StageResult{Text: review.Text, Degraded: true}
	}
	return models.StageResult{Text: finishText(presented, truncated), Degraded: review.Degraded}
}

// finishText trims a length-limited generation back to its last complete
// sentence instead of emitting a dangling fragment.
func finishText(text string, truncated bool) string {
	if !truncated {
		return text
	}
	return util.TrimToSentenceBoundary(text)
}
