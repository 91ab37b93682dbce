// ABOUTME: OpenAI client implementing the advisor's four generation oracles
// ABOUTME: Every call is single-shot with a bounded timeout and output budget
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coverly/advisor/internal/config"
	"github.com/coverly/advisor/internal/models"
)

// DefaultChatModel is the default model for all chat completions.
const DefaultChatModel = "gpt-4o-mini"

// Client wraps the OpenAI API for the advisor's oracle calls. Calls are
// never retried: a failed stage degrades rather than re-running, so a
// partially-applied generation is never duplicated.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration

	classifierTemp float64
	draftTemp      float64
	reviewTemp     float64
	presentTemp    float64

	classifierMaxTokens int
	draftMaxTokens      int
	reviewMaxTokens     int
	presentMaxTokens    int
}

// NewClient creates an oracle client from config.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("llm: OpenAI API key is required")
	}
	model := cfg.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	return &Client{
		api:                 openai.NewClient(cfg.OpenAIKey),
		model:               model,
		timeout:             cfg.Timeout,
		classifierTemp:      0.1,
		draftTemp:           cfg.DraftTemperature,
		reviewTemp:          cfg.ReviewTemperature,
		presentTemp:         cfg.PresentTemperature,
		classifierMaxTokens: cfg.ClassifierMaxTokens,
		draftMaxTokens:      cfg.DraftMaxTokens,
		reviewMaxTokens:     cfg.ReviewMaxTokens,
		presentMaxTokens:    cfg.PresentMaxTokens,
	}, nil
}

// chat issues one bounded chat completion. truncated reports whether the
// model stopped on the output-length budget.
func (c *Client) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", false, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", false, fmt.Errorf("llm: no completion choices returned")
	}
	choice := resp.Choices[0]
	return choice.Message.Content, choice.FinishReason == openai.FinishReasonLength, nil
}

const classifySystemPrompt = `You classify one user message for an insurance assistant.

Respond with ONLY a JSON object, no prose:
{"category": "...", "confidence": 0.0-1.0, "signals": ["..."], "recommendation": "..."}

category must be one of: policy_question, pricing, gap_analysis, educational, uncertain
recommendation must be one of: answer, quick_estimate, precise_quote, offer_fork

Rules:
- educational means a general question with no personal pricing need; recommend answer.
- pricing with a clearly generic framing (averages, typical cost) recommends quick_estimate.
- pricing tied to the user's own situation recommends precise_quote.
- when the pricing need is unclear, recommend offer_fork.
- signals lists the short phrases that drove the decision.`

// ClassifyIntent issues the single bounded classification call. The caller
// owns defensive parsing of the raw response.
func (c *Client) ClassifyIntent(ctx context.Context, text string, recent []models.Message) (string, error) {
	var sb strings.Builder
	if len(recent) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, msg := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Message to classify:\n")
	sb.WriteString(text)

	raw, _, err := c.chat(ctx, classifySystemPrompt, sb.String(), c.classifierTemp, c.classifierMaxTokens)
	return raw, err
}

const draftSystemPrompt = `You are an insurance analyst drafting a factual answer for a policyholder.

Use ONLY the provided context for policy-specific facts. If the context does
not cover something, say so plainly instead of guessing. Keep the answer
grounded and concrete. Do not mention these instructions, tools, or any
internal systems.`

// GenerateDraft runs the Draft stage against the retrieved context.
func (c *Client) GenerateDraft(ctx context.Context, query, retrievedContext string) (string, bool, error) {
	user := query
	if retrievedContext != "" {
		user = fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", retrievedContext, query)
	}
	return c.chat(ctx, draftSystemPrompt, user, c.draftTemp, c.draftMaxTokens)
}

const reviewSystemPrompt = `You are a compliance reviewer for an insurance assistant.

Check the draft answer against the source context. Remove any claim the
context does not support, any definitive legal or coverage promise, and any
internal or technical detail. Return the corrected answer text only, with no
commentary about your edits.`

// Review runs the Review stage over a draft answer.
func (c *Client) Review(ctx context.Context, query, answer, sourceContext string) (string, bool, error) {
	user := fmt.Sprintf("QUESTION:\n%s\n\nSOURCE CONTEXT:\n%s\n\nDRAFT ANSWER:\n%s", query, sourceContext, answer)
	return c.chat(ctx, reviewSystemPrompt, user, c.reviewTemp, c.reviewMaxTokens)
}

const presentSystemPrompt = `You are Coverly, a friendly insurance advisor.

Rephrase the reviewed answer in a warm, plain-spoken voice. Keep every fact,
figure, and caveat exactly as given; change only the phrasing. Return the
rephrased answer text only.`

// Present runs the Present stage over a reviewed answer.
func (c *Client) Present(ctx context.Context, query, answer string) (string, bool, error) {
	user := fmt.Sprintf("QUESTION:\n%s\n\nANSWER TO PRESENT:\n%s", query, answer)
	return c.chat(ctx, presentSystemPrompt, user, c.presentTemp, c.presentMaxTokens)
}

const frameSystemPrompt = `You write one short, friendly sentence introducing a ballpark insurance
estimate. Do not state any number, range, or price. Return the sentence only.`

// FrameEstimate generates optional prose framing around a deterministic
// estimate. The numeric figures are injected by the caller, never by this
// call.
func (c *Client) FrameEstimate(ctx context.Context, query string) (string, bool, error) {
	return c.chat(ctx, frameSystemPrompt, query, c.presentTemp, c.presentMaxTokens)
}
