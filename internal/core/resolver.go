// ABOUTME: Policy context resolver matching a coverage need to on-file records
// ABOUTME: Distinguishes wrong-type from nothing-on-file because the reply differs
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/coverly/advisor/internal/models"
)

// ResolutionKind is the closed set of resolver outcomes.
type ResolutionKind string

const (
	// ResolutionMatch - a record covering the needed type is on file
	ResolutionMatch ResolutionKind = "match"

	// ResolutionWrongType - records exist, but none covers the needed type
	ResolutionWrongType ResolutionKind = "wrong_type"

	// ResolutionNone - nothing is on file for the identity
	ResolutionNone ResolutionKind = "none"
)

// Resolution is the resolver's outcome plus the data each outcome needs.
type Resolution struct {
	Kind   ResolutionKind
	Record *models.PolicyRecord
	Have   []models.PolicyType
	Need   models.PolicyType
}

// PolicyReader is the read-only slice of the policy store the resolver
// consumes. It never fetches or parses documents.
type PolicyReader interface {
	GetRecordsForIdentity(ctx context.Context, identity string) ([]models.PolicyRecord, error)
}

// Resolver matches a detected coverage need against stored records.
type Resolver struct {
	store PolicyReader
}

// NewResolver creates a resolver over a policy reader.
func NewResolver(store PolicyReader) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns exactly one of Match, WrongType, or None. With no needed
// type, any record matches and the most recent one wins.
func (r *Resolver) Resolve(ctx context.Context, identity string, need models.PolicyType) (Resolution, error) {
	if identity == "" {
		return Resolution{Kind: ResolutionNone, Need: need}, nil
	}

	records, err := r.store.GetRecordsForIdentity(ctx, identity)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolver: load records: %w", err)
	}
	if len(records) == 0 {
		return Resolution{Kind: ResolutionNone, Need: need}, nil
	}

	if need == "" {
		// Records are returned most recent first.
		return Resolution{Kind: ResolutionMatch, Record: &records[0]}, nil
	}

	have := make([]models.PolicyType, 0, len(records))
	for i := range records {
		if records[i].Type == need {
			return Resolution{Kind: ResolutionMatch, Record: &records[i], Need: need}, nil
		}
		have = append(have, records[i].Type)
	}

	return Resolution{Kind: ResolutionWrongType, Have: have, Need: need}, nil
}

// Product-noun keyword map for detecting which coverage line a message is
// about. First match in table order wins within a category; categories are
// checked in a fixed order so detection stays deterministic.
var neededTypeKeywords = []struct {
	policyType models.PolicyType
	keywords   []string
}{
	{models.PolicyAuto, []string{"car", "cars", "auto", "vehicle", "truck", "suv", "motorcycle", "driver", "driving", "collision"}},
	{models.PolicyRenters, []string{"renter", "renters", "rental", "apartment", "landlord", "lease"}},
	{models.PolicyHome, []string{"home", "house", "homeowner", "homeowners", "dwelling", "property", "roof", "flood", "mortgage"}},
	{models.PolicyUmbrella, []string{"umbrella", "excess liability"}},
	{models.PolicyLife, []string{"life insurance", "term life", "whole life", "beneficiary"}},
	{models.PolicyHealth, []string{"health", "medical", "doctor", "hospital", "prescription", "dental"}},
}

// DetectNeededType maps product nouns in a message to a policy type.
// Returns "" when no coverage line is named. Single-word keywords match
// whole words only, so "carrier" never reads as "car".
func DetectNeededType(text string) models.PolicyType {
	norm := strings.ToLower(text)
	words := map[string]bool{}
	for _, w := range strings.Fields(norm) {
		words[strings.Trim(w, ".,!?'\"()")] = true
	}
	for _, entry := range neededTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(norm, kw) {
					return entry.policyType
				}
			} else if words[kw] {
				return entry.policyType
			}
		}
	}
	return ""
}
