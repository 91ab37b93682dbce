// ABOUTME: Deterministic estimate engine backed by a static versioned ratebook
// ABOUTME: Loaded once at startup, immutable afterward, safe for concurrent reads
package ratebook

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coverly/advisor/internal/models"
)

//go:embed data/rates.yaml
var defaultRates []byte

// ErrNoRates is returned when the table holds no entry for the requested
// policy type. The engine never invents a figure to cover the gap.
var ErrNoRates = errors.New("ratebook: no rates for policy type")

type rateRange struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

type ageRates struct {
	Default *rateRange           `yaml:"default"`
	States  map[string]rateRange `yaml:"states"`
}

type policyRates struct {
	Default rateRange            `yaml:"default"`
	States  map[string]rateRange `yaml:"states"`
	Ages    map[string]ageRates  `yaml:"ages"`
}

type ratebookFile struct {
	Version    string                 `yaml:"version"`
	Currency   string                 `yaml:"currency"`
	Disclaimer string                 `yaml:"disclaimer"`
	Policies   map[string]policyRates `yaml:"policies"`
}

// Ratebook is the in-memory reference table. It is never mutated after Load,
// so unsynchronized concurrent reads are safe.
type Ratebook struct {
	version    string
	currency   string
	disclaimer string
	policies   map[models.PolicyType]policyRates
}

// Load parses the ratebook at path, or the embedded default table when path
// is empty. A load failure is fatal for the process, not a per-request
// condition, so callers should exit on error.
func Load(path string) (*Ratebook, error) {
	data := defaultRates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ratebook: read %s: %w", path, err)
		}
	}

	var file ratebookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ratebook: parse: %w", err)
	}
	if file.Version == "" {
		return nil, errors.New("ratebook: missing version")
	}
	if file.Disclaimer == "" {
		return nil, errors.New("ratebook: missing disclaimer")
	}
	if len(file.Policies) == 0 {
		return nil, errors.New("ratebook: no policies defined")
	}

	policies := make(map[models.PolicyType]policyRates, len(file.Policies))
	for name, rates := range file.Policies {
		t, err := models.ParsePolicyType(name)
		if err != nil {
			return nil, fmt.Errorf("ratebook: %w", err)
		}
		if err := validateRange(rates.Default); err != nil {
			return nil, fmt.Errorf("ratebook: %s default: %w", name, err)
		}
		for state, r := range rates.States {
			if err := validateRange(r); err != nil {
				return nil, fmt.Errorf("ratebook: %s/%s: %w", name, state, err)
			}
		}
		for age, ar := range rates.Ages {
			if ar.Default != nil {
				if err := validateRange(*ar.Default); err != nil {
					return nil, fmt.Errorf("ratebook: %s/%s default: %w", name, age, err)
				}
			}
			for state, r := range ar.States {
				if err := validateRange(r); err != nil {
					return nil, fmt.Errorf("ratebook: %s/%s/%s: %w", name, age, state, err)
				}
			}
		}
		policies[t] = rates
	}

	return &Ratebook{
		version:    file.Version,
		currency:   file.Currency,
		disclaimer: file.Disclaimer,
		policies:   policies,
	}, nil
}

func validateRange(r rateRange) error {
	if r.Low <= 0 || r.High < r.Low {
		return fmt.Errorf("invalid range %d-%d", r.Low, r.High)
	}
	return nil
}

// Version returns the ratebook version string.
func (rb *Ratebook) Version() string { return rb.version }

// Currency returns the ratebook currency code.
func (rb *Ratebook) Currency() string { return rb.currency }

// Disclaimer returns the mandatory legal suffix for every estimate.
func (rb *Ratebook) Disclaimer() string { return rb.disclaimer }

// Estimate is a deterministic lookup result. Every figure comes straight
// from the table for the given key.
type Estimate struct {
	PolicyType models.PolicyType
	State      string
	AgeRange   string
	Low        int
	High       int
	RangeText  string
	Disclaimer string
	Version    string
}

// Estimate looks up the range for policyType x state x ageRange, falling
// back from the most specific key to the type default. State and ageRange
// may be empty.
func (rb *Ratebook) Estimate(policyType models.PolicyType, state, ageRange string) (Estimate, error) {
	rates, ok := rb.policies[policyType]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrNoRates, policyType)
	}

	r := rates.Default
	matchedState := ""
	if sr, ok := rates.States[state]; ok {
		r = sr
		matchedState = state
	}
	matchedAge := ""
	if ar, ok := rates.Ages[ageRange]; ok {
		if asr, ok := ar.States[state]; ok {
			r = asr
			matchedState = state
			matchedAge = ageRange
		} else if ar.Default != nil {
			// Age-specific default beats the state range only when no
			// age+state entry exists and the state had no entry either.
			if matchedState == "" {
				r = *ar.Default
				matchedAge = ageRange
			}
		}
	}

	est := Estimate{
		PolicyType: policyType,
		State:      matchedState,
		AgeRange:   matchedAge,
		Low:        r.Low,
		High:       r.High,
		Disclaimer: rb.disclaimer,
		Version:    rb.version,
	}
	est.RangeText = est.describe(rb.currency)
	return est, nil
}

func (e Estimate) describe(currency string) string {
	scope := "nationally"
	if e.State != "" {
		scope = "in " + e.State
	}
	age := ""
	if e.AgeRange != "" {
		age = fmt.Sprintf(" for ages %s", e.AgeRange)
	}
	return fmt.Sprintf("Typical %s insurance %s%s runs $%d to $%d per month (%s).",
		e.PolicyType, scope, age, e.Low, e.High, currency)
}

// Render composes the final user-facing estimate text. Optional framing
// prose goes first, the table-backed range next, and the disclaimer is
// appended unconditionally last so no generated content can displace it.
func (e Estimate) Render(framing string) string {
	text := e.RangeText
	if framing != "" {
		text = framing + "\n\n" + text
	}
	return text + "\n\n" + e.Disclaimer
}
