// ABOUTME: Journey state reconstructor deriving routing state from the transcript
// ABOUTME: Pure and idempotent; never mutates the transcript it scans
package core

import (
	"regexp"

	"github.com/coverly/advisor/internal/marker"
	"github.com/coverly/advisor/internal/models"
)

// stateCodePattern matches uppercase two-letter US state codes on word
// boundaries. Matching is case-sensitive on purpose: lowercase "hi", "in",
// "me" and "ok" are ordinary words, not jurisdictions.
var stateCodePattern = regexp.MustCompile(`\b[A-Z]{2}\b`)

var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DC": true, "DE": true, "FL": true, "GA": true, "HI": true,
	"IA": true, "ID": true, "IL": true, "IN": true, "KS": true, "KY": true,
	"LA": true, "MA": true, "MD": true, "ME": true, "MI": true, "MN": true,
	"MO": true, "MS": true, "MT": true, "NC": true, "ND": true, "NE": true,
	"NH": true, "NJ": true, "NM": true, "NV": true, "NY": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VA": true, "VT": true, "WA": true,
	"WI": true, "WV": true, "WY": true,
}

// ageRangePattern matches a stated age like "I'm 27" or "27 years old".
var ageRangePattern = regexp.MustCompile(`\b(1[89]|[2-9][0-9])\s*(years old|year old|yrs old|yo\b)`)

// ReconstructJourney derives per-turn routing state by scanning the
// transcript oldest to newest. Fields fill last-writer-wins. The function
// reads only sentinel tokens and coverage hints; it holds no state of its
// own, so recomputing on the same transcript yields an identical value.
func ReconstructJourney(transcript models.Transcript) models.JourneyState {
	var state models.JourneyState

	for _, msg := range transcript {
		switch msg.Role {
		case models.RoleUser:
			if choice := marker.DecodeForkChoice(msg.Content); choice != models.JourneyNone {
				state.Choice = choice
			}
			if code := DetectStateCode(msg.Content); code != "" {
				state.Profile.State = code
			}
			if t := DetectNeededType(msg.Content); t != "" {
				state.Profile.PolicyType = t
			}
			if age := detectAgeRange(msg.Content); age != "" {
				state.Profile.AgeRange = age
			}
		case models.RoleAssistant:
			if marker.Detect(msg.Content) == marker.OfferFork {
				state.AskedForFork = true
			}
		}
	}

	return state
}

// DetectStateCode returns the last valid state code mentioned in text, or
// "" when none appears.
func DetectStateCode(text string) string {
	found := ""
	for _, match := range stateCodePattern.FindAllString(text, -1) {
		if stateCodes[match] {
			found = match
		}
	}
	return found
}

// detectAgeRange buckets a stated age into the ratebook's age dimensions.
func detectAgeRange(text string) string {
	match := ageRangePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	age := 0
	for _, c := range match[1] {
		age = age*10 + int(c-'0')
	}
	switch {
	case age < 25:
		return "18-24"
	case age < 40:
		return "25-39"
	case age < 65:
		return "40-64"
	default:
		return "65+"
	}
}
