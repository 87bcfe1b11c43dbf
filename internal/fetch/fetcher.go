package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultUserAgent is sent by both strategies.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.93 Mobile Safari/537.36"

// Recorder receives fetch telemetry. *telemetry.Recorder implements it.
type Recorder interface {
	SetFetchMethod(method string)
	SetScrapingTime(d time.Duration)
}

// Strategy retrieves the raw markup of one page.
type Strategy interface {
	Fetch(ctx context.Context, url string, rec Recorder) (string, error)
}

// Fetcher classifies a URL and dispatches to the matching strategy.
type Fetcher struct {
	classifier *Classifier
	direct     Strategy
	rendered   Strategy
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a Fetcher. A nil classifier uses DefaultScrapePatterns.
func New(classifier *Classifier, direct, rendered Strategy, opts ...Option) *Fetcher {
	if classifier == nil {
		classifier = defaultClassifier
	}
	f := &Fetcher{classifier: classifier, direct: direct, rendered: rendered, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch records fetch_method and returns the page markup. Every failure is an *Error.
func (f *Fetcher) Fetch(ctx context.Context, url string, rec Recorder) (string, error) {
	method := f.classifier.Classify(url)
	rec.SetFetchMethod(string(method))

	strategy := f.direct
	if method == MethodScraping {
		strategy = f.rendered
	}
	log := loggerFrom(ctx, f.logger)
	ctx = ContextWithLogger(ctx, log)
	log.Info("fetching page", "url", url, "method", method)

	body, err := strategy.Fetch(ctx, url, rec)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			return "", fe
		}
		return "", &Error{Method: method, URL: url, Err: err}
	}
	return body, nil
}
