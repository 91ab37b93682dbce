// ABOUTME: PolicyRecord and the closed PolicyType enumeration
// ABOUTME: Records are produced by external document analysis; the core only reads them
package models

import (
	"fmt"
	"time"
)

// PolicyType is the closed set of coverage lines the system understands.
type PolicyType string

const (
	PolicyAuto     PolicyType = "auto"
	PolicyHome     PolicyType = "home"
	PolicyRenters  PolicyType = "renters"
	PolicyUmbrella PolicyType = "umbrella"
	PolicyLife     PolicyType = "life"
	PolicyHealth   PolicyType = "health"
	PolicyOther    PolicyType = "other"
)

// PolicyTypes lists every valid policy type.
var PolicyTypes = []PolicyType{
	PolicyAuto, PolicyHome, PolicyRenters, PolicyUmbrella, PolicyLife, PolicyHealth, PolicyOther,
}

// Valid reports whether t is a member of the closed enumeration.
func (t PolicyType) Valid() bool {
	for _, known := range PolicyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParsePolicyType converts a string into a PolicyType, rejecting values
// outside the closed set.
func ParsePolicyType(s string) (PolicyType, error) {
	t := PolicyType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown policy type %q", s)
	}
	return t, nil
}

// PolicyRecord is an analyzed policy document on file for an identity.
// At most one active record exists per (identity, type).
type PolicyRecord struct {
	RecordID         string            `json:"record_id"`
	Identity         string            `json:"identity"`
	Type             PolicyType        `json:"type"`
	Carrier          string            `json:"carrier"`
	Label            string            `json:"label"`
	AnalysisText     string            `json:"analysis_text"`
	StructuredFields map[string]string `json:"structured_fields,omitempty"`
	UploadedAt       time.Time         `json:"uploaded_at"`
}
