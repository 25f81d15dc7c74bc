package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRouteCmd() *cobra.Command {
	var act bool

	cmd := &cobra.Command{
		Use:   "route <request text>",
		Short: "Route a request through the planning gate",
		Long:  "Classifies the request, checks policy for the acting role, and prints\nthe routing decision. With --act, requests routed to automation also run\nthe bounded tool loop.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := initConfig()
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			resp, err := a.pipeline.Handle(cmd.Context(), request(text), act)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.Action != nil && resp.Action.FinalText != "" {
				fmt.Println(resp.Action.FinalText)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&act, "act", false, "run the action loop when routed to automation")
	return cmd
}
