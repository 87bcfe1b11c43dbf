package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/jobloader/internal/ingest"
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Fail pending records whose attempt was abandoned",
		Long: `Run one reconciler sweep: pending records past their hard deadline, or
never started within --stale-after of creation, are set to error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if !cmd.Flags().Changed("stale-after") {
				staleAfter = b.cfg.Ingest.StalePendingAfter
			}
			r := ingest.NewReconciler(b.store, b.cache, staleAfter, b.cfg.Ingest.StatusTTL, slog.Default())

			swept, err := r.Sweep(cmd.Context(), time.Now().UTC())
			for _, id := range swept {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d record(s) reconciled\n", len(swept))
			return nil
		},
	}

	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "override STALE_PENDING_AFTER")
	return cmd
}
