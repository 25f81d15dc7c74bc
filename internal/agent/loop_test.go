package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/policy"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

// scriptProposer replays a fixed sequence of steps, then finishes.
type scriptProposer struct {
	draft    *route.Draft
	draftErr error
	steps    []proposer.Step
	stepErr  error
	i        int
}

func (s *scriptProposer) ProposeRouting(context.Context, route.Request, intent.Intent) (*route.Draft, error) {
	if s.draftErr != nil {
		return nil, &proposer.Error{Op: "routing", Err: s.draftErr}
	}
	return s.draft, nil
}

func (s *scriptProposer) ProposeNextStep(context.Context, route.Request, route.RoutingDecision, []tools.ActionResult) (proposer.Step, error) {
	if s.stepErr != nil {
		return proposer.Step{}, &proposer.Error{Op: "next_step", Err: s.stepErr}
	}
	if s.i >= len(s.steps) {
		return proposer.Step{FinalText: "done"}, nil
	}
	st := s.steps[s.i]
	s.i++
	return st, nil
}

func newLoop(p proposer.Proposer, eval policy.Evaluator) (*Loop, *audit.MemorySink) {
	sink := audit.NewMemorySink()
	gate := tools.NewGate(tools.DefaultRegistry(), policy.NewClient(eval), sink)
	return NewLoop(p, gate, sink), sink
}

func actionDecision() route.RoutingDecision {
	return route.RoutingDecision{Intent: intent.Privileged, RouteTo: route.RouteAction}
}

func TestLoopDispatchesThenSummarizes(t *testing.T) {
	eval := policy.NewStaticEvaluator().Allow("it_admin", "tool:reset_password", policy.ActionExecute)
	p := &scriptProposer{steps: []proposer.Step{
		{ToolName: "reset_password", Args: map[string]string{"username": "john"}},
	}}
	loop, sink := newLoop(p, eval)

	out, err := loop.Run(context.Background(), route.Request{UserID: "u1", Role: "it_admin", Text: "Reset John's password", TicketRef: "T-100"}, actionDecision())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Result.Executed || out.Result.Tool != "reset_password" {
		t.Fatalf("result = %+v", out.Result)
	}
	if out.FinalText != "done" {
		t.Fatalf("final text = %q", out.FinalText)
	}
	if out.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2", out.Iterations)
	}

	recs := sink.All()
	if len(recs) != 2 {
		t.Fatalf("expected tool_execution + action_agent records, got %d", len(recs))
	}
	if recs[0].Type != audit.EventToolExecution || recs[1].Type != audit.EventActionAgent {
		t.Fatalf("record order: %s, %s", recs[0].Type, recs[1].Type)
	}
	if recs[1].Payload["executed"] != true || recs[1].Payload["tool"] != "reset_password" {
		t.Fatalf("action_agent payload: %+v", recs[1].Payload)
	}
}

func TestLoopSingleDispatchCutoff(t *testing.T) {
	eval := policy.NewStaticEvaluator().Allow("it_admin", "tool:kb_lookup", policy.ActionExecute)
	// Proposer keeps asking for tools; only the first dispatch runs.
	p := &scriptProposer{steps: []proposer.Step{
		{ToolName: "kb_lookup", Args: map[string]string{"query": "vpn"}},
		{ToolName: "kb_lookup", Args: map[string]string{"query": "mfa"}},
		{ToolName: "kb_lookup", Args: map[string]string{"query": "sso"}},
	}}
	loop, _ := newLoop(p, eval)
	loop.SetBudget(5)

	out, err := loop.Run(context.Background(), route.Request{Role: "it_admin", Text: "vpn"}, actionDecision())
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Steps) != 1 {
		t.Fatalf("dispatched %d tools, want 1", len(out.Steps))
	}
	if out.Iterations != 2 {
		t.Fatalf("iterations = %d, want 2 (second proposal ends the run)", out.Iterations)
	}
}

func TestLoopNoToolExecuted(t *testing.T) {
	p := &scriptProposer{} // finishes immediately
	loop, sink := newLoop(p, policy.NewStaticEvaluator())

	out, err := loop.Run(context.Background(), route.Request{Role: "employee", Text: "hi"}, actionDecision())
	if err != nil {
		t.Fatal(err)
	}
	r := out.Result
	if r.Executed || r.Tool != "none" || r.Decision != tools.DecisionDeny || r.Reason != "no tool executed" {
		t.Fatalf("result = %+v", r)
	}
	recs := sink.All()
	if len(recs) != 1 || recs[0].Type != audit.EventActionAgent {
		t.Fatalf("expected a single action_agent record, got %+v", recs)
	}
}

func TestLoopDenyIsAnOutcomeNotAnError(t *testing.T) {
	p := &scriptProposer{steps: []proposer.Step{
		{ToolName: "reset_password", Args: map[string]string{"username": "john"}},
	}}
	loop, _ := newLoop(p, policy.NewStaticEvaluator()) // deny everything

	out, err := loop.Run(context.Background(), route.Request{Role: "employee", Text: "Reset John's password"}, actionDecision())
	if err != nil {
		t.Fatalf("deny must not error: %v", err)
	}
	if out.Result.Executed || out.Result.Decision != tools.DecisionDeny {
		t.Fatalf("result = %+v", out.Result)
	}
}

func TestLoopUnknownToolAborts(t *testing.T) {
	eval := policy.NewStaticEvaluator().Allow("it_admin", "tool:ghost", policy.ActionExecute)
	p := &scriptProposer{steps: []proposer.Step{{ToolName: "ghost"}}}
	loop, _ := newLoop(p, eval)

	if _, err := loop.Run(context.Background(), route.Request{Role: "it_admin"}, actionDecision()); !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestLoopProposerErrorAborts(t *testing.T) {
	p := &scriptProposer{stepErr: errors.New("model unavailable")}
	loop, sink := newLoop(p, policy.NewStaticEvaluator())

	_, err := loop.Run(context.Background(), route.Request{Role: "employee"}, actionDecision())
	if err == nil {
		t.Fatal("expected proposer error to abort")
	}
	var perr *proposer.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v does not identify the proposer as the failing stage", err)
	}
	if sink.Len() != 0 {
		t.Fatal("no gate decision was made, so nothing should be audited")
	}
}

func TestLoopHonorsCancelledContext(t *testing.T) {
	p := &scriptProposer{steps: []proposer.Step{{ToolName: "kb_lookup"}}}
	loop, _ := newLoop(p, policy.NewStaticEvaluator())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loop.Run(ctx, route.Request{Role: "employee"}, actionDecision()); err == nil {
		t.Fatal("expected context error")
	}
}

func TestLoopBudgetOfOne(t *testing.T) {
	eval := policy.NewStaticEvaluator().Allow("it_admin", "tool:kb_lookup", policy.ActionExecute)
	p := &scriptProposer{steps: []proposer.Step{{ToolName: "kb_lookup", Args: map[string]string{"query": "vpn"}}}}
	loop, _ := newLoop(p, eval)
	loop.SetBudget(1)

	out, err := loop.Run(context.Background(), route.Request{Role: "it_admin"}, actionDecision())
	if err != nil {
		t.Fatal(err)
	}
	if out.Iterations != 1 || len(out.Steps) != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.FinalText != "" {
		t.Fatal("budget of one leaves no room for a closing response")
	}
}
