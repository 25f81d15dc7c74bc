// Package route synthesizes the authoritative routing decision for a
// request. A proposer may suggest values, but every field that affects
// authorization is recomputed here.
package route

import (
	"github.com/routegate-ai/routegate/internal/intent"
)

// RouteTo names the downstream handler a request is routed to.
type RouteTo string

const (
	RouteKnowledge RouteTo = "knowledge_handler"
	RouteAction    RouteTo = "action_handler"
	RouteHuman     RouteTo = "human_handler"
)

// ToolClass is the recommended tool tier for the downstream handler.
type ToolClass string

const (
	ToolClassNone       ToolClass = "none"
	ToolClassSafe       ToolClass = "safe_tools"
	ToolClassRestricted ToolClass = "restricted_tools"
)

// PrereqTicketRef is the prerequisite forced onto privileged requests
// that arrive without a case/ticket reference.
const PrereqTicketRef = "ticket_reference"

// Request is one identified actor's request entering the pipeline.
type Request struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	TicketRef string `json:"ticket_ref,omitempty"`
}

// PolicyCheck is the planning-gate verdict embedded in a final decision.
// It is populated only from the synthesizer's own policy call; a
// proposer-supplied value is discarded.
type PolicyCheck struct {
	Object  string `json:"policy_obj"`
	Action  string `json:"policy_act"`
	Allowed bool   `json:"allowed"`
	Role    string `json:"role"`
}

// Draft is an untrusted proposer suggestion. It is a distinct, mutable
// type: the final RoutingDecision is always constructed fresh, never by
// extending a draft in place.
type Draft struct {
	Intent           intent.Intent
	RouteTo          RouteTo
	RequiredPrereqs  []string
	RecommendedTools ToolClass
	Explanation      string
	Confidence       float64
}

// RoutingDecision is the authoritative output of the planning stage,
// immutable once emitted.
type RoutingDecision struct {
	Intent           intent.Intent   `json:"intent"`
	RiskTier         intent.RiskTier `json:"risk_tier"`
	RouteTo          RouteTo         `json:"route_to"`
	RequiredPrereqs  []string        `json:"required_prereqs"`
	RecommendedTools ToolClass       `json:"recommended_tools"`
	Explanation      string          `json:"explanation"`
	Confidence       float64         `json:"confidence"`
	Notes            string          `json:"notes,omitempty"`
	PolicyCheck      PolicyCheck     `json:"policy_check"`
}
