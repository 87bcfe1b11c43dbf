package cli

import (
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/jobloader/internal/ingest"
	"github.com/spf13/cobra"
)

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <job-loading-id> <source-url>",
		Short: "Push another ingestion task for a record that never started",
		Long: `Push another ingestion task for a pending record, e.g. after its queue
message was lost. A worker skips the task if the record was already claimed.

Examples:
  jobloadctl enqueue 1b4e28ba-2fa1-11d2-883f-0016d3cca427 https://example.com/careers/123`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			b, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			trigger := ingest.NewTrigger(b.store, b.cache, b.queue, b.cfg.Ingest.StatusTTL, slog.Default())
			if err := trigger.Requeue(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", id)
			return nil
		},
	}
}
