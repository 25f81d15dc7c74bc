package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newExecCmd() *cobra.Command {
	var toolName string
	var argPairs []string

	cmd := &cobra.Command{
		Use:   "exec --tool <name> [--arg key=value ...]",
		Short: "Dispatch a single tool through the execution gate",
		Long:  "Runs one policy-gated tool dispatch for the acting role. The gate\naudits the decision either way; a deny is reported, not an error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := make(map[string]string, len(argPairs))
			for _, pair := range argPairs {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --arg %q, want key=value", pair)
				}
				toolArgs[k] = v
			}

			cfg := initConfig()
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			reqCtx := map[string]string{"user_id": userFlag}
			if ticketFlag != "" {
				reqCtx["ticket_ref"] = ticketFlag
			}

			res, err := a.gate.Execute(cmd.Context(), roleFlag, toolName, toolArgs, reqCtx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&toolName, "tool", "", "tool name to dispatch")
	cmd.Flags().StringArrayVar(&argPairs, "arg", nil, "tool argument as key=value (repeatable)")
	cmd.MarkFlagRequired("tool")
	return cmd
}
