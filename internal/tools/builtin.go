package tools

import (
	"context"
	"fmt"
)

// KBLookupTool searches the knowledge base. Safe tier: read-only.
type KBLookupTool struct{}

func (KBLookupTool) Name() string { return "kb_lookup" }

func (KBLookupTool) Description() string {
	return "Search the knowledge base for relevant articles. Use for informational questions about setup, policies, and troubleshooting."
}

func (KBLookupTool) Parameters() map[string]any {
	return map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "search terms",
		},
	}
}

func (KBLookupTool) Invoke(_ context.Context, args map[string]string) (string, error) {
	query := args["query"]
	if query == "" {
		return "", fmt.Errorf("kb_lookup: missing required argument %q", "query")
	}
	return fmt.Sprintf("KB Results for '%s':\n- VPN Setup Guide\n- MFA Troubleshooting\n- Remote Access Policy", query), nil
}

// ResetPasswordTool resets a user's password. Restricted tier: only roles
// the policy table allows for tool:reset_password ever reach Invoke.
type ResetPasswordTool struct{}

func (ResetPasswordTool) Name() string { return "reset_password" }

func (ResetPasswordTool) Description() string {
	return "Reset a user's password (privileged). Requires the target username."
}

func (ResetPasswordTool) Parameters() map[string]any {
	return map[string]any{
		"username": map[string]any{
			"type":        "string",
			"description": "account to reset",
		},
	}
}

func (ResetPasswordTool) Invoke(_ context.Context, args map[string]string) (string, error) {
	username := args["username"]
	if username == "" {
		return "", fmt.Errorf("reset_password: missing required argument %q", "username")
	}
	return fmt.Sprintf("Password reset initiated for user '%s'. (Mock execution)", username), nil
}
