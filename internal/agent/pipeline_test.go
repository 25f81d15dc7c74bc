package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/policy"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

func newPipeline(p proposer.Proposer, eval policy.Evaluator) (*Pipeline, *audit.MemorySink) {
	sink := audit.NewMemorySink()
	pc := policy.NewClient(eval)
	synth := route.NewSynthesizer(pc, sink)
	gate := tools.NewGate(tools.DefaultRegistry(), pc, sink)
	return NewPipeline(p, synth, NewLoop(p, gate, sink)), sink
}

func TestScenarioEmployeePasswordResetNoTicket(t *testing.T) {
	pipe, _ := newPipeline(proposer.NewRuleProposer(), policy.NewStaticEvaluator())

	resp, err := pipe.Handle(context.Background(), route.Request{
		UserID: "u1", Role: "employee", Text: "Reset John's password",
	}, true)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Intent != intent.Privileged {
		t.Errorf("intent = %q, want privileged", resp.Intent)
	}
	if resp.Decision.RouteTo != route.RouteHuman {
		t.Errorf("route_to = %q, want human_handler", resp.Decision.RouteTo)
	}
	if len(resp.Decision.RequiredPrereqs) != 1 || resp.Decision.RequiredPrereqs[0] != route.PrereqTicketRef {
		t.Errorf("required_prereqs = %v", resp.Decision.RequiredPrereqs)
	}
	if resp.Action != nil {
		t.Error("human_handler route must not run the action loop")
	}
}

func TestScenarioAdminPasswordResetWithTicket(t *testing.T) {
	eval := policy.NewStaticEvaluator().
		Allow("it_admin", "route:intent:privileged", policy.ActionRoute).
		Allow("it_admin", "tool:reset_password", policy.ActionExecute)
	pipe, sink := newPipeline(proposer.NewRuleProposer(), eval)

	resp, err := pipe.Handle(context.Background(), route.Request{
		UserID: "u2", Role: "it_admin", Text: "Reset John's password", TicketRef: "T-100",
	}, true)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Decision.RouteTo != route.RouteAction {
		t.Fatalf("route_to = %q, want action_handler", resp.Decision.RouteTo)
	}
	if resp.Action == nil {
		t.Fatal("expected the action loop to run")
	}
	r := resp.Action.Result
	if !r.Executed || r.Decision != tools.DecisionAllow || !strings.Contains(r.Output, "john") {
		t.Fatalf("action result = %+v", r)
	}

	// routing_decision, tool_execution, action_agent in order.
	recs := sink.All()
	if len(recs) != 3 {
		t.Fatalf("expected 3 audit records, got %d", len(recs))
	}
	wantTypes := []audit.EventType{audit.EventRoutingDecision, audit.EventToolExecution, audit.EventActionAgent}
	for i, want := range wantTypes {
		if recs[i].Type != want {
			t.Errorf("record[%d] = %s, want %s", i, recs[i].Type, want)
		}
	}
}

func TestScenarioEmployeeDeniedToolNeverRuns(t *testing.T) {
	// Operational routing allowed, tool execution denied.
	eval := policy.NewStaticEvaluator().
		Allow("employee", "route:intent:operational", policy.ActionRoute)
	p := &scriptProposer{steps: []proposer.Step{
		{ToolName: "reset_password", Args: map[string]string{"username": "john"}},
	}}
	pipe, _ := newPipeline(p, eval)

	resp, err := pipe.Handle(context.Background(), route.Request{
		UserID: "u3", Role: "employee", Text: "please update my shared mailbox settings",
	}, true)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Decision.RouteTo != route.RouteAction {
		t.Fatalf("route_to = %q, want action_handler", resp.Decision.RouteTo)
	}
	r := resp.Action.Result
	if r.Executed {
		t.Fatal("denied tool must not execute")
	}
	if r.Decision != tools.DecisionDeny || !strings.Contains(r.Reason, "policy denied") {
		t.Fatalf("action result = %+v", r)
	}
}

func TestScenarioVPNQuestion(t *testing.T) {
	pipe, _ := newPipeline(proposer.NewRuleProposer(), policy.NewStaticEvaluator())

	resp, err := pipe.Handle(context.Background(), route.Request{
		UserID: "u4", Role: "employee", Text: "What is the VPN setup guide",
	}, true)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Intent != intent.Informational {
		t.Errorf("intent = %q, want informational", resp.Intent)
	}
	if resp.Decision.RouteTo != route.RouteKnowledge {
		t.Errorf("route_to = %q, want knowledge_handler", resp.Decision.RouteTo)
	}
	if resp.Decision.RiskTier != intent.RiskLow {
		t.Errorf("risk_tier = %q, want low", resp.Decision.RiskTier)
	}
}

func TestProposerFailureAbortsBeforePolicyCheck(t *testing.T) {
	p := &scriptProposer{draftErr: errors.New("model unavailable")}
	pipe, sink := newPipeline(p, policy.NewStaticEvaluator())

	_, err := pipe.Handle(context.Background(), route.Request{Role: "employee", Text: "hello"}, false)
	if err == nil {
		t.Fatal("expected proposer failure to abort the request")
	}
	var perr *proposer.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v does not identify the proposer as the failing stage", err)
	}
	if sink.Len() != 0 {
		t.Fatal("no policy decision was made, so nothing should be audited")
	}
}

func TestActFalseStopsAtDecision(t *testing.T) {
	eval := policy.NewStaticEvaluator().
		Allow("it_admin", "route:intent:privileged", policy.ActionRoute)
	pipe, sink := newPipeline(proposer.NewRuleProposer(), eval)

	resp, err := pipe.Handle(context.Background(), route.Request{
		Role: "it_admin", Text: "Reset John's password", TicketRef: "T-1",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Decision.RouteTo != route.RouteAction {
		t.Fatalf("route_to = %q", resp.Decision.RouteTo)
	}
	if resp.Action != nil {
		t.Fatal("act=false must not run the loop")
	}
	if sink.Len() != 1 {
		t.Fatalf("expected only the routing_decision record, got %d", sink.Len())
	}
}
