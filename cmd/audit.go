package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/routegate-ai/routegate/internal/audit"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent audit records",
		Long:  "Reads the append-only audit trail and prints the latest records as\nJSON lines, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := initConfig()
			sink, err := audit.NewFileSink(cfg.Audit.Path)
			if err != nil {
				return err
			}
			defer sink.Close()

			recs, err := sink.TailLatest(limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			for _, rec := range recs {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records to print")
	return cmd
}
