// Package api defines the JSON request and response shapes of the HTTP
// front-end. Decision and result payloads reuse the core types verbatim
// so the wire format matches the audit trail.
package api

// RouteRequest asks the pipeline to route (and optionally act on) one
// request.
type RouteRequest struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	TicketRef string `json:"ticket_ref,omitempty"`

	// Act runs the bounded action loop when the request is routed to
	// automation. Default false: routing decision only.
	Act bool `json:"act,omitempty"`
}

// ExecuteRequest asks the execution gate to dispatch a single tool.
type ExecuteRequest struct {
	UserID    string            `json:"user_id"`
	Role      string            `json:"role"`
	Tool      string            `json:"tool"`
	Args      map[string]string `json:"args,omitempty"`
	TicketRef string            `json:"ticket_ref,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
