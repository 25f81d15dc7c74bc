// Package policy is the decision-point boundary: a single
// (subject, object, action) query against an external rule table.
// A deny is a first-class answer, never an error.
package policy

import (
	"fmt"

	"github.com/routegate-ai/routegate/internal/intent"
)

// Actions used by the two gates.
const (
	ActionRoute   = "allow"   // planning gate: may this role route this intent to automation?
	ActionExecute = "execute" // execution gate: may this role run this tool?
)

// RouteObject builds the planning-gate object string for an intent.
// Object strings are derived here, never taken from actor input, so an
// actor cannot forge the resource being checked.
func RouteObject(i intent.Intent) string {
	return "route:intent:" + string(i)
}

// ToolObject builds the execution-gate object string for a tool name.
func ToolObject(name string) string {
	return "tool:" + name
}

// Query is one policy question, constructed fresh per check.
type Query struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Verdict is the evaluator's answer to a Query.
type Verdict struct {
	Query   Query `json:"query"`
	Allowed bool  `json:"allowed"`
}

// Evaluator is the external policy decision point.
// Implementations must be safe for concurrent use. The rule source may be
// reloaded at runtime, so identical queries can legitimately return
// different answers at different times.
type Evaluator interface {
	Evaluate(subject, object, action string) (bool, error)
}

// Client wraps an Evaluator. Every gate point issues its own fresh call;
// verdicts are never cached across the planning and execution gates, even
// for the same role and object.
type Client struct {
	eval Evaluator
}

// NewClient creates a policy client over the given evaluator.
func NewClient(eval Evaluator) *Client {
	return &Client{eval: eval}
}

// Check evaluates one query. The returned error reports evaluator
// infrastructure failure only; a deny comes back as Allowed=false.
func (c *Client) Check(subject, object, action string) (Verdict, error) {
	q := Query{Subject: subject, Object: object, Action: action}
	allowed, err := c.eval.Evaluate(subject, object, action)
	if err != nil {
		return Verdict{}, fmt.Errorf("policy evaluation %s/%s/%s: %w", subject, object, action, err)
	}
	return Verdict{Query: q, Allowed: allowed}, nil
}
