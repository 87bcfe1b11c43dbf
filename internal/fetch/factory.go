package fetch

import (
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/jobloader/internal/config"
)

// NewFromConfig builds a Fetcher with both strategies configured from cfg.
// Called once at startup. A nil logger means slog.Default().
func NewFromConfig(cfg config.FetchConfig, logger *slog.Logger) (*Fetcher, error) {
	patterns, err := config.LoadScrapePatterns(cfg.PatternsFile)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(patterns)
	if err != nil {
		return nil, err
	}

	directOpts := []DirectOption{WithUserAgent(cfg.UserAgent), WithMaxBodyBytes(cfg.MaxBodyBytes)}
	if cfg.HTTPTimeout > 0 {
		directOpts = append(directOpts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	}
	direct := NewDirect(directOpts...)
	rendered := NewRendered(
		WithBrowserBin(cfg.BrowserBin),
		WithStealth(cfg.Stealth),
		WithSettle(cfg.Settle),
		WithRenderUserAgent(cfg.UserAgent),
	)
	return New(classifier, direct, rendered, WithLogger(logger)), nil
}
