// ABOUTME: JourneyState types derived from transcript scanning
// ABOUTME: Never stored; recomputed per turn from the same transcript prefix
package models

// JourneyChoice is the user's chosen pricing path, if any.
type JourneyChoice string

const (
	JourneyNone          JourneyChoice = ""
	JourneyQuickEstimate JourneyChoice = "quick_estimate"
	JourneyPreciseQuote  JourneyChoice = "precise_quote"
)

// EstimateProfile collects the profile hints needed for a ballpark estimate.
// Fields are filled last-writer-wins while scanning the transcript.
type EstimateProfile struct {
	State      string     `json:"state,omitempty"`
	PolicyType PolicyType `json:"policy_type,omitempty"`
	AgeRange   string     `json:"age_range,omitempty"`
}

// JourneyState is per-turn routing state reconstructed from the transcript.
// It is a pure function of the transcript: recomputing it on the same
// prefix must yield an identical value.
type JourneyState struct {
	Choice       JourneyChoice   `json:"choice"`
	Profile      EstimateProfile `json:"profile"`
	AskedForFork bool            `json:"asked_for_fork"`
}
