package proposer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

// usernamePatterns extract the target account from a privileged request,
// e.g. "Reset John's password" or "reset password for john".
var usernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([a-z][a-z0-9._-]*)'s\b`),
	regexp.MustCompile(`(?i)\bfor (?:user )?([a-z][a-z0-9._-]*)\b`),
	regexp.MustCompile(`(?i)\baccount (?:of )?([a-z][a-z0-9._-]*)\b`),
}

// RuleProposer is a deterministic proposer with no LLM dependency. It
// is the default when no API key is configured and the fixture for
// exercising the pipeline offline.
type RuleProposer struct{}

func NewRuleProposer() *RuleProposer { return &RuleProposer{} }

func (r *RuleProposer) ProposeRouting(_ context.Context, req route.Request, in intent.Intent) (*route.Draft, error) {
	draft := &route.Draft{Intent: in}
	switch in {
	case intent.Privileged:
		draft.RouteTo = route.RouteAction
		draft.RecommendedTools = route.ToolClassRestricted
		draft.Explanation = "Privileged account action detected."
		draft.Confidence = 0.85
		if req.TicketRef == "" {
			draft.RequiredPrereqs = []string{route.PrereqTicketRef}
		}
	case intent.Operational:
		draft.RouteTo = route.RouteAction
		draft.RecommendedTools = route.ToolClassSafe
		draft.Explanation = "Operational change request detected."
		draft.Confidence = 0.65
	case intent.Informational:
		draft.RouteTo = route.RouteKnowledge
		draft.RecommendedTools = route.ToolClassSafe
		draft.Explanation = "Informational question detected."
		draft.Confidence = 0.85
	default:
		draft.RouteTo = route.RouteKnowledge
		draft.RecommendedTools = route.ToolClassSafe
		draft.Explanation = "Intent unclear from the request text."
		draft.Confidence = 0.65
	}
	return draft, nil
}

func (r *RuleProposer) ProposeNextStep(_ context.Context, req route.Request, decision route.RoutingDecision, history []tools.ActionResult) (Step, error) {
	if len(history) > 0 {
		last := history[len(history)-1]
		if last.Executed {
			return Step{FinalText: fmt.Sprintf("Completed via %s:\n%s", last.Tool, last.Output)}, nil
		}
		return Step{FinalText: fmt.Sprintf("Could not complete automatically: %s", last.Reason)}, nil
	}

	if decision.Intent == intent.Privileged {
		args := map[string]string{"username": extractUsername(req.Text)}
		return Step{ToolName: "reset_password", Args: args}, nil
	}
	return Step{ToolName: "kb_lookup", Args: map[string]string{"query": req.Text}}, nil
}

// extractUsername pulls a likely account name out of the request text.
// Falls back to "unknown" rather than guessing; the tool will report the
// mock target either way.
func extractUsername(text string) string {
	for _, re := range usernamePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.ToLower(m[1])
		}
	}
	return "unknown"
}
