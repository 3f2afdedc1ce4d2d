package rank

import (
	"strings"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// Method selects the per-example label-quality score.
type Method int

const (
	// SelfConfidence scores an example by the probability of its given label.
	SelfConfidence Method = iota
	// NormalizedMargin scores by the gap between the given label and the
	// strongest other class, rescaled to [0, 1].
	NormalizedMargin
	// ConfidenceWeightedEntropy divides the normalized entropy of the row by
	// the self-confidence and maps the ratio into (0, 1].
	ConfidenceWeightedEntropy
)

var methodNames = [...]string{
	SelfConfidence:            "self_confidence",
	NormalizedMargin:          "normalized_margin",
	ConfidenceWeightedEntropy: "confidence_weighted_entropy",
}

// String returns the snake_case name of the method.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// ParseMethod parses a snake_case method name. The empty string selects
// SelfConfidence.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SelfConfidence, nil
	}
	for i, name := range methodNames {
		if name == s {
			return Method(i), nil
		}
	}
	return SelfConfidence, errors.NewValidationError("ranked_by", "unknown scoring method", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
