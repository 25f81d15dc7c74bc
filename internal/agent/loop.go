// Package agent runs the bounded proposer/tool loop behind the planning
// gate and drives the full request pipeline.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

// DefaultIterationBudget bounds proposer round-trips per request.
const DefaultIterationBudget = 2

// DefaultProposerTimeout bounds a single proposer call.
const DefaultProposerTimeout = 120 * time.Second

// Outcome is the result of one action-loop run.
type Outcome struct {
	// Result summarizes whichever tool was, or was not, run.
	Result tools.ActionResult `json:"result"`
	// Steps holds every gate dispatch in order.
	Steps []tools.ActionResult `json:"steps,omitempty"`
	// FinalText is the proposer's closing response, if it produced one
	// within the budget.
	FinalText string `json:"final_text,omitempty"`
	// Iterations is the number of proposer calls made.
	Iterations int `json:"iterations"`
}

// Loop is an explicit state machine over a fixed iteration budget. Each
// iteration asks the proposer for either a final answer or exactly one
// tool call; a proposed call goes through the execution gate. At most one
// tool call is dispatched per request: once a result exists, a further
// proposed call ends the loop instead of executing.
type Loop struct {
	proposer        proposer.Proposer
	gate            *tools.Gate
	sink            audit.Sink
	budget          int
	proposerTimeout time.Duration
}

func NewLoop(p proposer.Proposer, gate *tools.Gate, sink audit.Sink) *Loop {
	return &Loop{
		proposer:        p,
		gate:            gate,
		sink:            sink,
		budget:          DefaultIterationBudget,
		proposerTimeout: DefaultProposerTimeout,
	}
}

// SetBudget overrides the iteration budget.
func (l *Loop) SetBudget(n int) {
	if n > 0 {
		l.budget = n
	}
}

// SetProposerTimeout overrides the per-call proposer timeout.
func (l *Loop) SetProposerTimeout(d time.Duration) {
	if d > 0 {
		l.proposerTimeout = d
	}
}

// Run executes the loop for a request already routed to automation. A
// proposer failure aborts the request; a tool denial or tool failure does
// not, it becomes part of the outcome. Exactly one action_agent audit
// record is emitted for the run (gate dispatches audit separately), and
// cancellation abandons further iterations without suppressing records
// already written.
func (l *Loop) Run(ctx context.Context, req route.Request, decision route.RoutingDecision) (Outcome, error) {
	reqCtx := map[string]string{"user_id": req.UserID}
	if req.TicketRef != "" {
		reqCtx["ticket_ref"] = req.TicketRef
	}

	var out Outcome
	for i := 0; i < l.budget; i++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		pctx, cancel := context.WithTimeout(ctx, l.proposerTimeout)
		step, err := l.proposer.ProposeNextStep(pctx, req, decision, out.Steps)
		cancel()
		if err != nil {
			return Outcome{}, fmt.Errorf("action loop: %w", err)
		}
		out.Iterations++

		if step.Done() {
			out.FinalText = step.FinalText
			break
		}
		if len(out.Steps) > 0 {
			// One dispatch per request; a second proposed call ends the run.
			break
		}

		res, err := l.gate.Execute(ctx, req.Role, step.ToolName, step.Args, reqCtx)
		if err != nil {
			return Outcome{}, err
		}
		out.Steps = append(out.Steps, res)
	}

	out.Result = summarize(out.Steps)

	rec := audit.NewRecord(audit.EventActionAgent, map[string]any{
		"user_id":    req.UserID,
		"role":       req.Role,
		"route_to":   string(decision.RouteTo),
		"iterations": out.Iterations,
		"executed":   out.Result.Executed,
		"tool":       out.Result.Tool,
		"decision":   string(out.Result.Decision),
		"reason":     out.Result.Reason,
	})
	if err := l.sink.Append(rec); err != nil {
		return Outcome{}, fmt.Errorf("audit action agent: %w", err)
	}
	return out, nil
}

// summarize reduces the dispatch history to the terminal ActionResult.
func summarize(steps []tools.ActionResult) tools.ActionResult {
	if len(steps) == 0 {
		return tools.ActionResult{
			Executed: false,
			Tool:     "none",
			Decision: tools.DecisionDeny,
			Reason:   "no tool executed",
		}
	}
	return steps[len(steps)-1]
}
