package tools

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/routegate-ai/routegate/internal/audit"
	"github.com/routegate-ai/routegate/internal/policy"
)

// ErrUnknownTool reports a dispatch to a tool name with no registry
// entry. An unrecognized name is a policy-bypass risk, so the gate fails
// closed instead of returning a descriptive success.
var ErrUnknownTool = errors.New("unknown tool")

// outputSummaryLimit bounds the output excerpt stored in audit payloads.
const outputSummaryLimit = 200

// Gate is the execution gate and tool dispatcher. It is independent of
// the planning gate: reaching the action handler pre-authorizes nothing,
// and every tool call performs its own fresh policy check.
type Gate struct {
	registry *Registry
	policy   *policy.Client
	sink     audit.Sink
	timeout  time.Duration
}

// NewGate creates an execution gate over the given registry.
func NewGate(registry *Registry, pc *policy.Client, sink audit.Sink) *Gate {
	return &Gate{
		registry: registry,
		policy:   pc,
		sink:     sink,
		timeout:  60 * time.Second,
	}
}

// SetTimeout overrides the per-invocation tool timeout.
func (g *Gate) SetTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

// Execute runs one policy-gated tool dispatch. Every branch emits exactly
// one audit record before returning, and no branch invokes the tool after
// a deny. A tool-implementation failure is converted to an ActionResult
// (decision stays allow: the policy allowed it, only the execution
// failed), never propagated as an error.
func (g *Gate) Execute(ctx context.Context, role, toolName string, args map[string]string, reqCtx map[string]string) (ActionResult, error) {
	obj := policy.ToolObject(toolName)
	verdict, err := g.policy.Check(role, obj, policy.ActionExecute)
	if err != nil {
		return ActionResult{}, fmt.Errorf("execution gate: %w", err)
	}

	base := map[string]any{
		"role":       role,
		"tool":       toolName,
		"args":       args,
		"policy_obj": obj,
		"policy_act": policy.ActionExecute,
		"allowed":    verdict.Allowed,
	}
	for k, v := range reqCtx {
		base["ctx_"+k] = v
	}

	if !verdict.Allowed {
		if err := g.audit(base, map[string]any{"decision": string(DecisionDeny)}); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{
			Executed: false,
			Tool:     toolName,
			Args:     args,
			Decision: DecisionDeny,
			Reason:   "policy denied tool execution",
		}, nil
	}

	tool, ok := g.registry.Get(toolName)
	if !ok {
		if err := g.audit(base, map[string]any{
			"decision": string(DecisionDeny),
			"error":    "unknown tool",
		}); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{
			Executed: false,
			Tool:     toolName,
			Args:     args,
			Decision: DecisionDeny,
			Reason:   fmt.Sprintf("unknown tool %q", toolName),
		}, fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	output, invokeErr := tool.Invoke(invokeCtx, args)
	if invokeErr != nil {
		if err := g.audit(base, map[string]any{
			"decision": string(DecisionAllow),
			"error":    invokeErr.Error(),
		}); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{
			Executed: false,
			Tool:     toolName,
			Args:     args,
			Decision: DecisionAllow,
			Reason:   fmt.Sprintf("tool execution failed: %v", invokeErr),
		}, nil
	}

	if err := g.audit(base, map[string]any{
		"decision":       string(DecisionAllow),
		"output_summary": truncate(output, outputSummaryLimit),
	}); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{
		Executed: true,
		Tool:     toolName,
		Args:     args,
		Decision: DecisionAllow,
		Reason:   "policy allowed tool execution",
		Output:   output,
	}, nil
}

// audit merges extra fields into base and appends one tool_execution
// record. Sink failure fails the request: an un-audited execution is a
// compliance gap.
func (g *Gate) audit(base, extra map[string]any) error {
	payload := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		payload[k] = v
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := g.sink.Append(audit.NewRecord(audit.EventToolExecution, payload)); err != nil {
		return fmt.Errorf("audit tool execution: %w", err)
	}
	return nil
}

// truncate cuts s to at most limit bytes without splitting a rune, so
// the audit record stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
