package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-loading-id>",
		Short: "Show the cached status of a job loading",
		Args:  cobra.ExactArgs(1),
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

			status, ok, err := b.cache.GetJobLoadingStatus(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("read cached status: %w", err)
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tunknown (not cached)\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, status)
			return nil
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid job loading id %q", raw)
	}
	return id, nil
}
