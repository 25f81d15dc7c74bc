// Package intent classifies free-text requests into coarse categories
// that drive routing and risk assessment.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the inferred request category.
type Intent string

const (
	Informational Intent = "informational"
	Operational   Intent = "operational"
	Privileged    Intent = "privileged"
	Ambiguous     Intent = "ambiguous"
)

// RiskTier captures the operational risk implied by an intent.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Privileged patterns are checked first: a false negative on privileged
// intent is the costlier failure mode, so under-gating beats over-gating.
var privilegedPatterns = compile(
	`\breset\b.*\bpassword\b`,
	`\bgrant\b.*\baccess\b`,
	`\bdisable\b.*\baccount\b`,
	`\belevate\b.*\bprivilege\b`,
	`\bcreate\b.*\badmin\b`,
)

var informationalPatterns = compile(
	`\bhow do i\b`,
	`\binstructions\b`,
	`\bpolicy\b`,
	`\bguide\b`,
	`\bdocumentation\b`,
	`\bwhat is\b`,
	`\bwhere can i\b`,
)

// Broad "do X" heuristic for operational requests that are not privileged.
var operationalPattern = regexp.MustCompile(`\b(create|update|change|request|provision|run)\b`)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Classify maps request text to an intent. It is deterministic and total:
// unmatched text yields Ambiguous.
func Classify(text string) Intent {
	s := strings.ToLower(strings.TrimSpace(text))

	for _, p := range privilegedPatterns {
		if p.MatchString(s) {
			return Privileged
		}
	}
	for _, p := range informationalPatterns {
		if p.MatchString(s) {
			return Informational
		}
	}
	if operationalPattern.MatchString(s) {
		return Operational
	}
	return Ambiguous
}

// RiskFor returns the risk tier for an intent.
func RiskFor(i Intent) RiskTier {
	switch i {
	case Informational:
		return RiskLow
	case Privileged:
		return RiskHigh
	default:
		// Operational and Ambiguous both warrant a closer look.
		return RiskMedium
	}
}
