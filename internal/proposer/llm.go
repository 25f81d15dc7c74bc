package proposer

import (
	"context"
	"fmt"
	"strings"

	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/provider"
	"github.com/routegate-ai/routegate/internal/route"
	"github.com/routegate-ai/routegate/internal/tools"
)

const routingSystemPrompt = `You are the triage planner for an IT service desk.
Given a user request, draft a routing decision as a single JSON object with
these fields and nothing else:

  intent: one of "informational", "operational", "privileged", "ambiguous"
  route_to: one of "knowledge_handler", "action_handler", "human_handler"
  required_prereqs: array of strings (e.g. "ticket_reference")
  recommended_tools: one of "none", "safe_tools", "restricted_tools"
  explanation: one short sentence
  confidence: number between 0 and 1

Privileged requests (password resets, access grants, account changes) must
list "ticket_reference" in required_prereqs unless the request already
carries a ticket. Your output is a suggestion only; authorization is
decided elsewhere.`

const actionSystemPrompt = `You are the action agent for an IT service desk.
Use the available tools to fulfill the routed request. Call at most one
tool per turn. When the request is fulfilled, or when a tool was denied,
respond with a short plain-text summary instead of another tool call.`

// LLMProposer drafts routing decisions and action steps by calling an
// LLM backend. All of its output is untrusted.
type LLMProposer struct {
	provider provider.Provider
	model    string
	registry *tools.Registry
}

func NewLLMProposer(p provider.Provider, model string, registry *tools.Registry) *LLMProposer {
	if model == "" {
		model = p.DefaultModel()
	}
	return &LLMProposer{provider: p, model: model, registry: registry}
}

func (l *LLMProposer) ProposeRouting(ctx context.Context, req route.Request, in intent.Intent) (*route.Draft, error) {
	prompt := fmt.Sprintf("Role: %s\nClassified intent: %s\nTicket reference: %s\nRequest: %s",
		req.Role, in, orNone(req.TicketRef), req.Text)

	events, err := l.provider.Chat(ctx, &provider.ChatRequest{
		Model:        l.model,
		SystemPrompt: routingSystemPrompt,
		Messages: []provider.Message{{
			Role:    provider.RoleUser,
			Content: []provider.Content{{Type: provider.ContentTypeText, Text: prompt}},
		}},
	})
	if err != nil {
		return nil, &Error{Op: "routing", Err: err}
	}
	text, _, err := provider.Collect(events)
	if err != nil {
		return nil, &Error{Op: "routing", Err: err}
	}
	draft, err := parseDraft(text)
	if err != nil {
		return nil, &Error{Op: "routing", Err: err}
	}
	return draft, nil
}

func (l *LLMProposer) ProposeNextStep(ctx context.Context, req route.Request, decision route.RoutingDecision, history []tools.ActionResult) (Step, error) {
	var schemas []provider.ToolSchema
	for _, t := range l.registry.All() {
		schemas = append(schemas, provider.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\nRouted to: %s\nRecommended tools: %s\nRequest: %s\n",
		req.Role, decision.RouteTo, decision.RecommendedTools, req.Text)
	if req.TicketRef != "" {
		fmt.Fprintf(&b, "Ticket reference: %s\n", req.TicketRef)
	}
	for _, r := range history {
		if r.Executed {
			fmt.Fprintf(&b, "\nTool %s succeeded:\n%s\n", r.Tool, r.Output)
		} else {
			fmt.Fprintf(&b, "\nTool %s did not run: %s\n", r.Tool, r.Reason)
		}
	}

	events, err := l.provider.Chat(ctx, &provider.ChatRequest{
		Model:        l.model,
		SystemPrompt: actionSystemPrompt,
		Tools:        schemas,
		Messages: []provider.Message{{
			Role:    provider.RoleUser,
			Content: []provider.Content{{Type: provider.ContentTypeText, Text: b.String()}},
		}},
	})
	if err != nil {
		return Step{}, &Error{Op: "next_step", Err: err}
	}
	text, calls, err := provider.Collect(events)
	if err != nil {
		return Step{}, &Error{Op: "next_step", Err: err}
	}

	if len(calls) > 0 {
		// Only the first call is honored; the loop enforces one dispatch
		// per iteration.
		args, err := stringifyArgs(calls[0].Input)
		if err != nil {
			return Step{}, &Error{Op: "next_step", Err: err}
		}
		return Step{ToolName: calls[0].Name, Args: args}, nil
	}
	return Step{FinalText: strings.TrimSpace(text)}, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
