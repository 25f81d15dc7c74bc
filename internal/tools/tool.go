// Package tools defines the tool contract, the registry, and the
// execution gate that mediates every tool invocation through policy.
package tools

import "context"

// Tool is one effectful operation invokable through the execution gate.
// Implementations never see a request the gate denied.
type Tool interface {
	// Name returns the tool identifier (snake_case), e.g. "reset_password".
	// This is the name a proposer uses and the name policy objects are
	// derived from; it must be unique.
	Name() string

	// Description is shown to the proposer so it can pick the right tool.
	Description() string

	// Parameters returns the JSON Schema properties for the tool's
	// arguments.
	Parameters() map[string]any

	// Invoke runs the tool. ctx carries the gate's timeout; args are the
	// proposer-supplied string arguments.
	Invoke(ctx context.Context, args map[string]string) (string, error)
}

// Decision is the execution-gate outcome for one dispatch.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// ActionResult is the outcome of one tool-dispatch attempt.
// Executed=true implies Decision=allow; Decision=deny implies
// Executed=false with no output.
type ActionResult struct {
	Executed bool              `json:"executed"`
	Tool     string            `json:"tool"`
	Args     map[string]string `json:"args"`
	Decision Decision          `json:"decision"`
	Reason   string            `json:"reason"`
	Output   string            `json:"output,omitempty"`
}
