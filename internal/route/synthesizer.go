package route

import (
	"context"
	"fmt"

	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/policy"
)

// Synthesizer is the planning gate. It combines intent, the policy
// verdict, and prerequisite state into a final RoutingDecision, and
// audits that decision before returning it.
type Synthesizer struct {
	policy *policy.Client
	sink   audit.Sink
}

// NewSynthesizer creates a planning-gate synthesizer.
func NewSynthesizer(pc *policy.Client, sink audit.Sink) *Synthesizer {
	return &Synthesizer{policy: pc, sink: sink}
}

// Route applies the planning-gate state machine:
//
//  1. Fresh policy check on route:intent:<intent>.
//  2. Prerequisite enforcement (ticket reference for privileged intent).
//  3. Route precedence: deny beats satisfied prerequisites, missing
//     prerequisites beat an allow. There is no tier between automated
//     and human handling.
//  4. Exactly one routing_decision audit record, emitted before return.
//
// draft may be nil. Policy-relevant fields in a draft are never trusted;
// route_to and policy_check are always recomputed.
func (s *Synthesizer) Route(ctx context.Context, req Request, in intent.Intent, draft *Draft) (RoutingDecision, error) {
	if err := ctx.Err(); err != nil {
		return RoutingDecision{}, err
	}

	obj := policy.RouteObject(in)
	verdict, err := s.policy.Check(req.Role, obj, policy.ActionRoute)
	if err != nil {
		return RoutingDecision{}, fmt.Errorf("planning gate: %w", err)
	}
	allowed := verdict.Allowed

	// Prerequisites: start from the proposer's suggestion, then force the
	// ticket requirement for privileged requests without one. The add is
	// idempotent.
	var required []string
	if draft != nil {
		required = append(required, draft.RequiredPrereqs...)
	}
	if in == intent.Privileged && req.TicketRef == "" && !contains(required, PrereqTicketRef) {
		required = append(required, PrereqTicketRef)
	}

	var routeTo RouteTo
	var explanation string
	var notes string

	switch in {
	case intent.Privileged:
		switch {
		case !allowed:
			routeTo = RouteHuman
			explanation = "Privileged request: policy does not permit this role to route privileged actions to automation."
		case len(required) > 0:
			routeTo = RouteHuman
			explanation = "Privileged request: role permitted, but prerequisites missing for automated routing."
		default:
			routeTo = RouteAction
			explanation = "Privileged request: role permitted and prerequisites satisfied. Route to automation (execution gate still applies)."
		}
	case intent.Operational:
		if !allowed {
			routeTo = RouteHuman
			explanation = "Operational request: policy does not permit automated handling for this role."
		} else {
			routeTo = RouteAction
			explanation = "Operational request: role permitted. Route to automation (execution gate still applies)."
		}
	case intent.Informational:
		// Informational routing is always permissible; the execution gate
		// still applies to any tool the knowledge handler triggers.
		routeTo = RouteKnowledge
		explanation = "Informational request: route to knowledge handler / safe tools."
	default:
		routeTo = RouteKnowledge
		explanation = "Intent ambiguous. Start with knowledge lookup / clarification before any action."
		notes = "Ask for target system, desired outcome, and (if privileged) a ticket reference."
	}

	toolClass := ToolClassSafe
	if in == intent.Privileged {
		toolClass = ToolClassRestricted
	}

	decision := RoutingDecision{
		Intent:           in,
		RiskTier:         intent.RiskFor(in),
		RouteTo:          routeTo,
		RequiredPrereqs:  required,
		RecommendedTools: toolClass,
		Explanation:      explanation,
		Confidence:       confidenceFor(in, draft),
		Notes:            notes,
		PolicyCheck: PolicyCheck{
			Object:  verdict.Query.Object,
			Action:  verdict.Query.Action,
			Allowed: allowed,
			Role:    req.Role,
		},
	}

	rec := audit.NewRecord(audit.EventRoutingDecision, map[string]any{
		"user_id":           req.UserID,
		"role":              req.Role,
		"prompt":            req.Text,
		"ticket_ref":        req.TicketRef,
		"intent":            string(decision.Intent),
		"risk_tier":         string(decision.RiskTier),
		"route_to":          string(decision.RouteTo),
		"required_prereqs":  decision.RequiredPrereqs,
		"recommended_tools": string(decision.RecommendedTools),
		"policy_obj":        decision.PolicyCheck.Object,
		"policy_act":        decision.PolicyCheck.Action,
		"allowed":           decision.PolicyCheck.Allowed,
		"explanation":       decision.Explanation,
		"confidence":        decision.Confidence,
	})
	if err := s.sink.Append(rec); err != nil {
		// An un-audited routing decision is a compliance gap: fail the
		// request rather than return an unrecorded decision.
		return RoutingDecision{}, fmt.Errorf("audit routing decision: %w", err)
	}

	return decision, nil
}

// confidenceFor returns the draft confidence when it is usable, otherwise
// the deterministic defaults.
func confidenceFor(in intent.Intent, draft *Draft) float64 {
	if draft != nil && draft.Confidence > 0 && draft.Confidence <= 1 {
		return draft.Confidence
	}
	if in == intent.Informational || in == intent.Privileged {
		return 0.85
	}
	return 0.65
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
