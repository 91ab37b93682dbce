// ABOUTME: Response marker protocol shared with the presentation layer
// ABOUTME: Owns all encode/decode of control signals embedded in chat text
package marker

import (
	"strings"

	"github.com/coverly/advisor/internal/models"
)

// Marker is a control signal appended to plain-text output. The set is
// closed and versioned: adding a token is a breaking change for any
// consumer that pattern-matches on it.
type Marker string

const (
	None             Marker = ""
	RequestUpload    Marker = "request_upload"
	OfferFork        Marker = "offer_fork"
	OpenExternalLink Marker = "open_external_link"
)

// Wire tokens. The presentation layer strips and interprets these; the core
// only emits them.
const (
	tokenRequestUpload    = "[[coverly:upload-policy]]"
	tokenOfferFork        = "[[coverly:offer-fork]]"
	tokenOpenExternalLink = "[[coverly:open-link]]"
)

// Fork-choice sentinels. When the fork is offered, the presentation layer
// sends one of these phrases back as the user's reply. They are disjoint by
// construction.
const (
	ChoiceQuickPhrase   = "quick estimate"
	ChoicePrecisePhrase = "precise quote"
)

var tokens = map[Marker]string{
	RequestUpload:    tokenRequestUpload,
	OfferFork:        tokenOfferFork,
	OpenExternalLink: tokenOpenExternalLink,
}

// Valid reports whether m is a member of the closed set (None included).
func (m Marker) Valid() bool {
	if m == None {
		return true
	}
	_, ok := tokens[m]
	return ok
}

// Token returns the wire token for m, or "" for None or unknown markers.
func (m Marker) Token() string {
	return tokens[m]
}

// Annotate appends at most one marker token to text. Unknown markers are
// dropped rather than emitted, so the wire contract stays closed.
func Annotate(text string, m Marker) string {
	token, ok := tokens[m]
	if !ok {
		return text
	}
	return strings.TrimRight(text, " \n") + "\n\n" + token
}

// Detect returns the first marker whose token appears anywhere in text, or
// None. Used when scanning assistant transcript messages.
func Detect(text string) Marker {
	for m, token := range tokens {
		if strings.Contains(text, token) {
			return m
		}
	}
	return None
}

// Strip removes every marker token from text and returns the cleaned text
// plus the first marker found.
func Strip(text string) (string, Marker) {
	found := Detect(text)
	for _, token := range tokens {
		text = strings.ReplaceAll(text, token, "")
	}
	return strings.TrimRight(text, " \n"), found
}

// DecodeForkChoice reads an explicit fork choice out of a user message.
// A message containing both sentinels is ambiguous and decodes to none.
func DecodeForkChoice(userText string) models.JourneyChoice {
	norm := strings.ToLower(userText)
	quick := strings.Contains(norm, ChoiceQuickPhrase)
	precise := strings.Contains(norm, ChoicePrecisePhrase)
	switch {
	case quick && !precise:
		return models.JourneyQuickEstimate
	case precise && !quick:
		return models.JourneyPreciseQuote
	}
	return models.JourneyNone
}
