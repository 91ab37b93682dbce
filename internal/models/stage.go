// ABOUTME: StageResult type shared by the Draft/Review/Present pipeline stages
// ABOUTME: Degraded marks a designed fallback to the prior stage's output, not an error
package models

// StageResult is the output of one pipeline stage.
type StageResult struct {
	Text          string `json:"text"`
	SourceContext string `json:"source_context,omitempty"`
	Degraded      bool   `json:"degraded"`
}
