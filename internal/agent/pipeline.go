package agent

import (
	"context"
	"fmt"

	"github.com/routegate-ai/routegate/internal/intent"
	"github.com/routegate-ai/routegate/internal/proposer"
	"github.com/routegate-ai/routegate/internal/route"
)

// Response is the full pipeline output for one request.
type Response struct {
	Intent   intent.Intent         `json:"intent"`
	Decision route.RoutingDecision `json:"decision"`
	// Action is set only when the request was routed to automation and
	// the caller asked for the loop to run.
	Action *Outcome `json:"action,omitempty"`
}

// Pipeline is the sequential request chain: classify, optionally draft,
// synthesize the routing decision, and conditionally run the action
// loop. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	proposer proposer.Proposer
	synth    *route.Synthesizer
	loop     *Loop
}

func NewPipeline(p proposer.Proposer, synth *route.Synthesizer, loop *Loop) *Pipeline {
	return &Pipeline{proposer: p, synth: synth, loop: loop}
}

// Handle runs one request through the pipeline. A proposer failure
// aborts before any policy check is made. When act is false the pipeline
// stops at the routing decision even for action_handler routes.
func (p *Pipeline) Handle(ctx context.Context, req route.Request, act bool) (Response, error) {
	in := intent.Classify(req.Text)

	var draft *route.Draft
	if p.proposer != nil {
		var err error
		draft, err = p.proposer.ProposeRouting(ctx, req, in)
		if err != nil {
			return Response{}, fmt.Errorf("pipeline: %w", err)
		}
	}

	decision, err := p.synth.Route(ctx, req, in, draft)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Intent: in, Decision: decision}
	if act && decision.RouteTo == route.RouteAction && p.loop != nil {
		outcome, err := p.loop.Run(ctx, req, decision)
		if err != nil {
			return Response{}, err
		}
		resp.Action = &outcome
	}
	return resp, nil
}
