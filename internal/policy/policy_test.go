package policy

import (
	"errors"
	"sync"
	"testing"

	"github.com/routegate-ai/routegate/internal/intent"
)

func TestObjectConstructors(t *testing.T) {
	if got := RouteObject(intent.Privileged); got != "route:intent:privileged" {
		t.Errorf("RouteObject = %q, want route:intent:privileged", got)
	}
	if got := ToolObject("reset_password"); got != "tool:reset_password" {
		t.Errorf("ToolObject = %q, want tool:reset_password", got)
	}
}

func TestStaticEvaluator(t *testing.T) {
	e := NewStaticEvaluator().
		Allow("it_admin", "route:intent:privileged", ActionRoute).
		Allow("it_admin", "tool:reset_password", ActionExecute)

	tests := []struct {
		sub, obj, act string
		want          bool
	}{
		{"it_admin", "route:intent:privileged", ActionRoute, true},
		{"it_admin", "tool:reset_password", ActionExecute, true},
		{"employee", "route:intent:privileged", ActionRoute, false},
		{"it_admin", "route:intent:privileged", ActionExecute, false},
		{"it_admin", "tool:kb_lookup", ActionExecute, false},
	}
	for _, tc := range tests {
		got, err := e.Evaluate(tc.sub, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("Evaluate(%s, %s, %s) error: %v", tc.sub, tc.obj, tc.act, err)
		}
		if got != tc.want {
			t.Errorf("Evaluate(%s, %s, %s) = %v, want %v", tc.sub, tc.obj, tc.act, got, tc.want)
		}
	}
}

func TestStaticEvaluatorRevoke(t *testing.T) {
	e := NewStaticEvaluator().Allow("employee", "tool:kb_lookup", ActionExecute)
	if ok, _ := e.Evaluate("employee", "tool:kb_lookup", ActionExecute); !ok {
		t.Fatal("expected allow before revoke")
	}
	e.Revoke("employee", "tool:kb_lookup", ActionExecute)
	if ok, _ := e.Evaluate("employee", "tool:kb_lookup", ActionExecute); ok {
		t.Fatal("expected deny after revoke")
	}
}

// countingEvaluator records how often it is consulted.
type countingEvaluator struct {
	mu    sync.Mutex
	calls int
	allow bool
	err   error
}

func (c *countingEvaluator) Evaluate(_, _, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.allow, c.err
}

func TestClientIssuesFreshCallPerCheck(t *testing.T) {
	eval := &countingEvaluator{allow: true}
	c := NewClient(eval)

	for i := 0; i < 3; i++ {
		v, err := c.Check("it_admin", "tool:reset_password", ActionExecute)
		if err != nil {
			t.Fatalf("Check error: %v", err)
		}
		if !v.Allowed {
			t.Fatal("expected allow")
		}
	}
	if eval.calls != 3 {
		t.Fatalf("evaluator consulted %d times, want 3 (no caching)", eval.calls)
	}
}

func TestClientDenyIsNotAnError(t *testing.T) {
	c := NewClient(NewStaticEvaluator())
	v, err := c.Check("employee", "tool:reset_password", ActionExecute)
	if err != nil {
		t.Fatalf("deny must not surface as an error, got %v", err)
	}
	if v.Allowed {
		t.Fatal("expected deny")
	}
	if v.Query.Subject != "employee" || v.Query.Object != "tool:reset_password" || v.Query.Action != ActionExecute {
		t.Fatalf("verdict query not preserved: %+v", v.Query)
	}
}

func TestClientEvaluatorFailure(t *testing.T) {
	wantErr := errors.New("rule store unreachable")
	c := NewClient(&countingEvaluator{err: wantErr})
	_, err := c.Check("employee", "tool:kb_lookup", ActionExecute)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped evaluator error, got %v", err)
	}
}

func TestVerdictCanChangeBetweenChecks(t *testing.T) {
	e := NewStaticEvaluator()
	c := NewClient(e)

	if v, _ := c.Check("employee", "route:intent:operational", ActionRoute); v.Allowed {
		t.Fatal("expected initial deny")
	}
	e.Allow("employee", "route:intent:operational", ActionRoute)
	if v, _ := c.Check("employee", "route:intent:operational", ActionRoute); !v.Allowed {
		t.Fatal("expected allow after rule change; client must not cache verdicts")
	}
}
