package cli

import (
	"encoding/json"
	"fmt"

	"github.com/kiranshivaraju/jobloader/internal/compress"
	"github.com/kiranshivaraju/jobloader/internal/config"
	"github.com/kiranshivaraju/jobloader/internal/fetch"
	"github.com/kiranshivaraju/jobloader/internal/telemetry"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		raw        bool
		htmlBudget int
		textBudget int
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch and compress a page the way the worker would",
		Long: `Fetch a job page with the strategy its URL selects, compress it to the
prompt budget and print the result. Telemetry is written to stderr as JSON.

Examples:
  jobloadctl fetch https://example.com/careers/123
  jobloadctl fetch https://herp.careers/v1/acme/abcdef --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := config.LoadFetch()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("html-budget") {
				fc.HTMLBudget = htmlBudget
			}
			if cmd.Flags().Changed("text-budget") {
				fc.TextBudget = textBudget
			}
			if err := fc.Validate(); err != nil {
				return err
			}

			fetcher, err := fetch.NewFromConfig(fc, nil)
			if err != nil {
				return fmt.Errorf("create fetcher: %w", err)
			}

			rec := telemetry.NewRecorder()
			content, err := fetcher.Fetch(cmd.Context(), args[0], rec)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", args[0], err)
			}
			if !raw {
				content, err = compress.New(compress.WithBudgets(fc.HTMLBudget, fc.TextBudget)).Compress(content, rec)
				if err != nil {
					return fmt.Errorf("compress: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), content)

			enc := json.NewEncoder(cmd.ErrOrStderr())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(rec.Finish())
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the fetched markup without compressing")
	cmd.Flags().IntVar(&htmlBudget, "html-budget", 0, "override COMPRESS_HTML_BUDGET")
	cmd.Flags().IntVar(&textBudget, "text-budget", 0, "override COMPRESS_TEXT_BUDGET")
	return cmd
}
