// Package proposer produces untrusted suggestions for the routing and
// action stages. A proposer never holds authority: its drafts are
// re-derived by the synthesizer and its tool steps pass through the
// execution gate before anything runs.
package proposer

import (
	"context"
	"fmt"

	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

// Error reports a proposer failure: a backend call that did not complete
// or output that could not be decoded. It is distinct from gate and
// infrastructure errors so callers can tell "the suggestion step broke"
// apart from "a policy-relevant step broke"; no policy check has been
// made when one is returned.
type Error struct {
	Op  string // "routing" or "next_step"
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("proposer %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Step is a proposed next action for the bounded tool loop. Exactly one
// of ToolName or FinalText is set: a tool dispatch to attempt, or the
// closing response when the proposer is done.
type Step struct {
	ToolName  string
	Args      map[string]string
	FinalText string
}

// Done reports whether the step ends the loop instead of requesting a
// tool dispatch.
func (s Step) Done() bool { return s.ToolName == "" }

// Proposer suggests routing drafts and action steps.
type Proposer interface {
	// ProposeRouting drafts a routing decision for the request. The
	// draft is advisory; returning an error aborts the request before
	// any policy check is made.
	ProposeRouting(ctx context.Context, req route.Request, in intent.Intent) (*route.Draft, error)

	// ProposeNextStep suggests the next tool dispatch (or the final
	// response) given the decision and the results so far.
	ProposeNextStep(ctx context.Context, req route.Request, decision route.RoutingDecision, history []tools.ActionResult) (Step, error)
}
